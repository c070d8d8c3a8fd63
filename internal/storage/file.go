package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourname/moodlog/internal"
)

// FileStorage keeps users in <dir>/users.json and each user's entries in
// <dir>/health_<userID>.json. Nothing is cached; every call goes to disk.
type FileStorage struct {
	dataDir   string
	usersFile string
	logger    internal.Logger
}

func NewFileStorage(dataDir string, logger internal.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Errorf("storage: failed to create data dir %s: %v", dataDir, err)
		return nil, fmt.Errorf("storage: mkdir %s: %w", dataDir, err)
	}
	return &FileStorage{
		dataDir:   dataDir,
		usersFile: filepath.Join(dataDir, "users.json"),
		logger:    logger,
	}, nil
}

func (s *FileStorage) Close() error { return nil }

func (s *FileStorage) entryFile(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`+"\x00") {
		return "", fmt.Errorf("storage: invalid user id %q: %w", userID, internal.ErrValidation)
	}
	return filepath.Join(s.dataDir, "health_"+userID+".json"), nil
}

// ensureFile creates path holding an empty JSON array if it does not exist.
// An existing file is never touched.
func ensureFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString("[]"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readJSONArray loads path into v. An empty file decodes to nothing.
func readJSONArray(path string, v interface{}) error {
	if err := ensureFile(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// atomicWriteFileJSON writes through a uniquely named temp file in the same
// directory so that concurrent writers never share one.
func atomicWriteFileJSON(filePath string, data interface{}) error {
	f, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return err
	}
	tempFile := f.Name()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

// --- UserRepository ---

func (s *FileStorage) loadUsers() ([]internal.User, error) {
	var users []internal.User
	if err := readJSONArray(s.usersFile, &users); err != nil {
		s.logger.Errorf("storage: failed to load users: %v", err)
		return nil, fmt.Errorf("storage: load users: %w", err)
	}
	return users, nil
}

func (s *FileStorage) ListUsers(ctx context.Context) ([]internal.User, error) {
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []internal.User{}
	}
	return users, nil
}

func (s *FileStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("storage: user %s: %w", id, internal.ErrNotFound)
}

func (s *FileStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("storage: user %q: %w", username, internal.ErrNotFound)
}

func (s *FileStorage) CreateUser(ctx context.Context, user *internal.User) error {
	users, err := s.loadUsers()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == user.Username {
			return fmt.Errorf("storage: username %q: %w", user.Username, internal.ErrAlreadyExists)
		}
	}
	users = append(users, *user)
	if err := atomicWriteFileJSON(s.usersFile, users); err != nil {
		s.logger.Errorf("storage: failed to write users: %v", err)
		return fmt.Errorf("storage: write users: %w", err)
	}
	return nil
}

// --- EntryRepository ---

// loadEntries never fails on bad content. A file that is not a JSON array
// reads as empty; an element that does not decode is skipped.
func (s *FileStorage) loadEntries(userID string) ([]internal.HealthEntry, string, error) {
	path, err := s.entryFile(userID)
	if err != nil {
		return nil, "", err
	}
	var raw []json.RawMessage
	if err := readJSONArray(path, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			s.logger.Warnf("storage: malformed entries file %s, treating as empty: %v", path, err)
			return []internal.HealthEntry{}, path, nil
		}
		return nil, path, fmt.Errorf("storage: read %s: %w", path, err)
	}
	entries := make([]internal.HealthEntry, 0, len(raw))
	for i, msg := range raw {
		var e internal.HealthEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			s.logger.Warnf("storage: skipping malformed entry %d in %s: %v", i, path, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, path, nil
}

func (s *FileStorage) saveEntries(path string, entries []internal.HealthEntry) error {
	if err := atomicWriteFileJSON(path, entries); err != nil {
		s.logger.Errorf("storage: failed to write %s: %v", path, err)
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}

func (s *FileStorage) ListEntries(ctx context.Context, userID string) ([]internal.HealthEntry, error) {
	entries, _, err := s.loadEntries(userID)
	return entries, err
}

func (s *FileStorage) AppendEntry(ctx context.Context, userID string, entry *internal.HealthEntry) error {
	entries, path, err := s.loadEntries(userID)
	if err != nil {
		return err
	}
	return s.saveEntries(path, prependEntry(entries, *entry))
}

func (s *FileStorage) UpdateEntry(ctx context.Context, userID string, entry *internal.HealthEntry) error {
	entries, path, err := s.loadEntries(userID)
	if err != nil {
		return err
	}
	i := locateEntry(entries, *entry)
	if i < 0 {
		return fmt.Errorf("storage: entry %s: %w", entry.ID, internal.ErrNotFound)
	}
	entries[i] = *entry
	return s.saveEntries(path, entries)
}

func (s *FileStorage) MergeEntries(ctx context.Context, userID string, incoming []internal.HealthEntry) (int, error) {
	entries, path, err := s.loadEntries(userID)
	if err != nil {
		return 0, err
	}
	if err := s.saveEntries(path, mergeEntries(entries, incoming)); err != nil {
		return 0, err
	}
	return len(incoming), nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*FileStorage)(nil)
var _ EntryRepository = (*FileStorage)(nil)
