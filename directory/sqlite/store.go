// Package sqlite implements the directory protocol on SQLite using the
// pure-Go modernc driver. The schema is embedded and applied with
// golang-migrate.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/skulipro/authcore/directory"
)

// Store is a read-mostly directory backed by one SQLite database.
type Store struct {
	db *sql.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const identitySelect = `
SELECT i.id, i.username, i.password_hash, i.status, i.phone, i.email,
       COALESCE(i.tenant_id, ''), COALESCE(t.sender_name, ''), COALESCE(t.otp_daily_cap, 0)
FROM identities i
LEFT JOIN tenants t ON t.id = i.tenant_id
`

func (s *Store) FindByUsername(ctx context.Context, username string) (*directory.Identity, error) {
	row := s.db.QueryRowContext(ctx, identitySelect+`WHERE i.username = ?`, directory.NormalizeUsername(username))
	return scanIdentity(row)
}

func (s *Store) FindByID(ctx context.Context, id string) (*directory.Identity, error) {
	row := s.db.QueryRowContext(ctx, identitySelect+`WHERE i.id = ?`, id)
	return scanIdentity(row)
}

func (s *Store) RolesOf(ctx context.Context, identityID string) ([]directory.RoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT role, tenant_id, is_default
FROM role_assignments
WHERE identity_id = ?
ORDER BY is_default DESC, rowid ASC`, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []directory.RoleAssignment
	for rows.Next() {
		var a directory.RoleAssignment
		if err := rows.Scan(&a.Role, &a.TenantID, &a.IsDefault); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PutTenant inserts or updates a tenant.
func (s *Store) PutTenant(ctx context.Context, id, name, senderName string, otpDailyCap int) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tenants (id, name, sender_name, otp_daily_cap) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, sender_name = excluded.sender_name,
    otp_daily_cap = excluded.otp_daily_cap`, id, name, senderName, otpDailyCap)
	return err
}

// PutIdentity inserts or updates an identity. Sender name and OTP cap are
// tenant attributes and are ignored here.
func (s *Store) PutIdentity(ctx context.Context, identity directory.Identity) error {
	status := identity.Status
	if status == "" {
		status = directory.StatusActive
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO identities (id, username, password_hash, status, phone, email, tenant_id)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET username = excluded.username, password_hash = excluded.password_hash,
    status = excluded.status, phone = excluded.phone, email = excluded.email, tenant_id = excluded.tenant_id`,
		identity.ID, directory.NormalizeUsername(identity.Username), identity.PasswordHash, string(status),
		identity.Phone, identity.Email, mapStringNull(identity.TenantID))
	return err
}

// AssignRole adds a role assignment. Marking it default clears the flag on
// the identity's other assignments.
func (s *Store) AssignRole(ctx context.Context, identityID string, a directory.RoleAssignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if a.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE role_assignments SET is_default = 0 WHERE identity_id = ?`, identityID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO role_assignments (identity_id, role, tenant_id, is_default) VALUES (?, ?, ?, ?)
ON CONFLICT(identity_id, role, tenant_id) DO UPDATE SET is_default = excluded.is_default`,
		identityID, a.Role, a.TenantID, a.IsDefault); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*directory.Identity, error) {
	var (
		id     directory.Identity
		status string
	)
	err := row.Scan(&id.ID, &id.Username, &id.PasswordHash, &status, &id.Phone, &id.Email,
		&id.TenantID, &id.SenderName, &id.OTPDailyCap)
	if err != nil {
		return nil, mapNotFound(err)
	}
	id.Status = directory.Status(status)
	return &id, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return directory.ErrNotFound
	}
	return err
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
