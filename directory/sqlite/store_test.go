package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skulipro/authcore/directory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "directory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	// Second run is a no-op.
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestIdentityLookupJoinsTenant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutTenant(ctx, "s1", "Kibaha Secondary", "KIBAHA", 4))
	require.NoError(t, s.PutIdentity(ctx, directory.Identity{
		ID: "u1", Username: "JDoe", PasswordHash: "$argon2id$...", Phone: "+255700000001",
		Email: "jdoe@example.com", TenantID: "s1",
	}))

	got, err := s.FindByUsername(ctx, " jdoe ")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, directory.StatusActive, got.Status)
	assert.Equal(t, "KIBAHA", got.SenderName)
	assert.Equal(t, 4, got.OTPDailyCap)

	byID, err := s.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, got, byID)

	_, err = s.FindByUsername(ctx, "missing")
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestIdentityWithoutTenant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutIdentity(ctx, directory.Identity{ID: "u2", Username: "solo", PasswordHash: "h", Status: directory.StatusSuspended}))
	got, err := s.FindByID(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, got.TenantID)
	assert.Equal(t, directory.StatusSuspended, got.Status)
}

func TestRoleAssignmentsDefaultFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutTenant(ctx, "s1", "One", "", 0))
	require.NoError(t, s.PutTenant(ctx, "s2", "Two", "", 0))
	require.NoError(t, s.PutIdentity(ctx, directory.Identity{ID: "u1", Username: "u1", PasswordHash: "h", TenantID: "s1"}))

	require.NoError(t, s.AssignRole(ctx, "u1", directory.RoleAssignment{Role: "teacher", TenantID: "s1", IsDefault: true}))
	require.NoError(t, s.AssignRole(ctx, "u1", directory.RoleAssignment{Role: "parent", TenantID: "s2", IsDefault: true}))

	roles, err := s.RolesOf(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "parent", roles[0].Role)
	assert.True(t, roles[0].IsDefault)
	assert.False(t, roles[1].IsDefault)

	def, ok := directory.DefaultAssignment(roles)
	require.True(t, ok)
	assert.Equal(t, "s2", def.TenantID)
}
