package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skulipro/authcore/directory"
)

func TestPutAndLookup(t *testing.T) {
	s := New()
	s.Put(directory.Identity{ID: "u1", Username: " U1 ", PasswordHash: "h"},
		directory.RoleAssignment{Role: "teacher", TenantID: "s1", IsDefault: true})

	got, err := s.FindByUsername(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, directory.StatusActive, got.Status)

	_, err = s.FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, directory.ErrNotFound)

	roles, err := s.RolesOf(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	// Renaming drops the old username index.
	s.Put(directory.Identity{ID: "u1", Username: "renamed"})
	_, err = s.FindByUsername(context.Background(), "u1")
	assert.ErrorIs(t, err, directory.ErrNotFound)
	_, err = s.FindByID(context.Background(), "u1")
	assert.NoError(t, err)
}
