// Package memory is an in-process directory used by tests, the load
// generator and local development.
package memory

import (
	"context"
	"sync"

	"github.com/skulipro/authcore/directory"
)

// Store is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]directory.Identity
	byUsername map[string]string
	roles      map[string][]directory.RoleAssignment
}

func New() *Store {
	return &Store{
		byID:       make(map[string]directory.Identity),
		byUsername: make(map[string]string),
		roles:      make(map[string][]directory.RoleAssignment),
	}
}

// Put inserts or replaces an identity and its role assignments.
func (s *Store) Put(identity directory.Identity, roles ...directory.RoleAssignment) {
	identity.Username = directory.NormalizeUsername(identity.Username)
	if identity.Status == "" {
		identity.Status = directory.StatusActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byID[identity.ID]; ok {
		delete(s.byUsername, prev.Username)
	}
	s.byID[identity.ID] = identity
	s.byUsername[identity.Username] = identity.ID
	s.roles[identity.ID] = append([]directory.RoleAssignment(nil), roles...)
}

func (s *Store) FindByUsername(_ context.Context, username string) (*directory.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[directory.NormalizeUsername(username)]
	if !ok {
		return nil, directory.ErrNotFound
	}
	identity := s.byID[id]
	return &identity, nil
}

func (s *Store) FindByID(_ context.Context, id string) (*directory.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.byID[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return &identity, nil
}

func (s *Store) RolesOf(_ context.Context, identityID string) ([]directory.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]directory.RoleAssignment(nil), s.roles[identityID]...), nil
}
