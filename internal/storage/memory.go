package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourname/moodlog/internal"
)

// MemoryStorage is an in-process backend for tests and throwaway servers.
// The mutex only keeps the maps safe for the race detector; each method still
// copies the collection out, mutates it and stores it back.
type MemoryStorage struct {
	mu      sync.RWMutex
	users   []internal.User
	entries map[string][]internal.HealthEntry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string][]internal.HealthEntry)}
}

func (s *MemoryStorage) Close() error { return nil }

// --- UserRepository ---

func (s *MemoryStorage) ListUsers(ctx context.Context) ([]internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]internal.User{}, s.users...), nil
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("storage: user %s: %w", id, internal.ErrNotFound)
}

func (s *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("storage: user %q: %w", username, internal.ErrNotFound)
}

func (s *MemoryStorage) CreateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("storage: username %q: %w", user.Username, internal.ErrAlreadyExists)
		}
	}
	s.users = append(s.users, *user)
	return nil
}

// --- EntryRepository ---

func (s *MemoryStorage) load(userID string) []internal.HealthEntry {
	return append([]internal.HealthEntry{}, s.entries[userID]...)
}

func (s *MemoryStorage) ListEntries(ctx context.Context, userID string) ([]internal.HealthEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(userID), nil
}

func (s *MemoryStorage) AppendEntry(ctx context.Context, userID string, entry *internal.HealthEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = prependEntry(s.load(userID), *entry)
	return nil
}

func (s *MemoryStorage) UpdateEntry(ctx context.Context, userID string, entry *internal.HealthEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.load(userID)
	i := locateEntry(entries, *entry)
	if i < 0 {
		return fmt.Errorf("storage: entry %s: %w", entry.ID, internal.ErrNotFound)
	}
	entries[i] = *entry
	s.entries[userID] = entries
	return nil
}

func (s *MemoryStorage) MergeEntries(ctx context.Context, userID string, incoming []internal.HealthEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = mergeEntries(s.load(userID), incoming)
	return len(incoming), nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*MemoryStorage)(nil)
var _ EntryRepository = (*MemoryStorage)(nil)
