// Package directory defines the identity and role-assignment lookups that the
// authentication core consumes. Account management writes these records; the
// core only reads them.
package directory

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no identity matches a lookup.
var ErrNotFound = errors.New("identity not found")

// Status is the lifecycle state of an identity.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusPending   Status = "pending"
)

// Identity is a user account plus the contact details needed to deliver a
// second factor.
type Identity struct {
	ID           string
	Username     string
	PasswordHash string
	Status       Status
	Phone        string
	Email        string
	TenantID     string
	// SenderName is the tenant's bulk-SMS sender label.
	SenderName string
	// OTPDailyCap is the tenant's OTP generation cap. Zero means default.
	OTPDailyCap int
}

// RoleAssignment links an identity to a role label within a tenant.
type RoleAssignment struct {
	Role      string
	TenantID  string
	IsDefault bool
}

// Store is the directory protocol.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	RolesOf(ctx context.Context, identityID string) ([]RoleAssignment, error)
}

// NormalizeUsername trims and lowercases a username for lookup.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultAssignment returns the assignment flagged default, or the first one.
func DefaultAssignment(assignments []RoleAssignment) (RoleAssignment, bool) {
	if len(assignments) == 0 {
		return RoleAssignment{}, false
	}
	for _, a := range assignments {
		if a.IsDefault {
			return a, true
		}
	}
	return assignments[0], true
}

// RoleLabels returns the distinct role labels in assignment order.
func RoleLabels(assignments []RoleAssignment) []string {
	seen := make(map[string]struct{}, len(assignments))
	out := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.Role]; ok {
			continue
		}
		seen[a.Role] = struct{}{}
		out = append(out, a.Role)
	}
	return out
}
