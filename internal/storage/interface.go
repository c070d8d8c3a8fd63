package storage

import (
	"context"

	"github.com/yourname/moodlog/internal"
)

type UserRepository interface {
	ListUsers(ctx context.Context) ([]internal.User, error)
	GetUserByID(ctx context.Context, id string) (*internal.User, error)
	GetUserByUsername(ctx context.Context, username string) (*internal.User, error)
	// CreateUser fails with internal.ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, user *internal.User) error
}

// EntryRepository stores one ordered collection of entries per user. Every
// write reads the whole collection, mutates it and writes it back without
// locking; concurrent writers to one user's collection can lose updates.
type EntryRepository interface {
	// ListEntries returns the stored order, newest first. Unreadable data
	// yields an empty slice.
	ListEntries(ctx context.Context, userID string) ([]internal.HealthEntry, error)
	// AppendEntry puts entry at the front of the collection.
	AppendEntry(ctx context.Context, userID string, entry *internal.HealthEntry) error
	// UpdateEntry replaces the record with entry.ID, falling back to the first
	// record whose Date equals entry.Date. internal.ErrNotFound if neither matches.
	UpdateEntry(ctx context.Context, userID string, entry *internal.HealthEntry) error
	// MergeEntries overwrites records with matching ids in place and appends
	// the rest, returning how many entries were merged.
	MergeEntries(ctx context.Context, userID string, entries []internal.HealthEntry) (int, error)
}

// Repositories bundles one backend's repositories with its shutdown hook.
type Repositories struct {
	Users   UserRepository
	Entries EntryRepository
	Close   func() error
}
