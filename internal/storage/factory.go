package storage

import (
	"context"
	"fmt"

	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/config"
)

func repositoriesOf[S interface {
	UserRepository
	EntryRepository
	Close() error
}](s S) *Repositories {
	return &Repositories{Users: s, Entries: s, Close: s.Close}
}

func NewFileRepositories(dataDir string, logger internal.Logger) (*Repositories, error) {
	s, err := NewFileStorage(dataDir, logger)
	if err != nil {
		return nil, err
	}
	return repositoriesOf(s), nil
}

func NewPostgresRepositories(ctx context.Context, dsn string, logger internal.Logger) (*Repositories, error) {
	s, err := NewPostgresStorage(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return repositoriesOf(s), nil
}

func NewSQLiteRepositories(path string, logger internal.Logger) (*Repositories, error) {
	s, err := NewSQLiteStorage(path, logger)
	if err != nil {
		return nil, err
	}
	return repositoriesOf(s), nil
}

// NewRepositories opens the backend selected by cfg.StorageBackend.
func NewRepositories(ctx context.Context, cfg *config.Config, logger internal.Logger) (*Repositories, error) {
	switch cfg.StorageBackend {
	case "file":
		return NewFileRepositories(cfg.DataDir, logger)
	case "memory":
		return repositoriesOf(NewMemoryStorage()), nil
	case "postgres":
		return NewPostgresRepositories(ctx, cfg.PostgresDSN, logger)
	case "sqlite":
		return NewSQLiteRepositories(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}
