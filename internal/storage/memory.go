package storage

import (
	"context"
	"fmt"
	"sync"
)

type memoryEntry struct {
	fileID     string
	visibility Visibility
}

// MemoryStore is an in-memory Store implementation for tests and development.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[int64]bool // user id -> elevated
	operators map[int64]struct{}
	entries   []memoryEntry
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int64]bool),
		operators: make(map[int64]struct{}),
	}
}

// EnsureUser inserts the user if absent, preserving an existing VIP flag.
func (s *MemoryStore) EnsureUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		s.users[userID] = false
	}
	return nil
}

// SetElevated flips the VIP flag directly. Elevation is granted out of band
// (purchases are manual), so only tests and dev tooling call this.
func (s *MemoryStore) SetElevated(userID int64, elevated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = elevated
}

// IsElevated reports the VIP flag; unknown users are not elevated.
func (s *MemoryStore) IsElevated(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[userID], nil
}

// IsOperator reports operator membership.
func (s *MemoryStore) IsOperator(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.operators[userID]
	return ok, nil
}

// GrantOperator adds the user to the operator set.
func (s *MemoryStore) GrantOperator(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators[userID] = struct{}{}
	return nil
}

// RevokeOperator removes the user from the operator set.
func (s *MemoryStore) RevokeOperator(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.operators, userID)
	return nil
}

// Add appends a wallpaper entry and returns its 1-based id.
func (s *MemoryStore) Add(_ context.Context, fileID string, visibility Visibility) (int64, error) {
	if !visibility.Valid() {
		return 0, fmt.Errorf("add wallpaper: invalid visibility %q", visibility)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, memoryEntry{fileID: fileID, visibility: visibility})
	return int64(len(s.entries)), nil
}

// ListVisible returns file ids in insertion order.
func (s *MemoryStore) ListVisible(_ context.Context, elevated bool) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var fileIDs []string
	for _, e := range s.entries {
		if elevated || e.visibility == VisibilityPublic {
			fileIDs = append(fileIDs, e.fileID)
		}
	}
	return fileIDs, nil
}

var _ Store = (*MemoryStore)(nil)
