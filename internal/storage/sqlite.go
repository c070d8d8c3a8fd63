package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourname/moodlog/internal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type userRecord struct {
	ID       string `gorm:"primaryKey"`
	Username string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	Created  string `gorm:"column:created_at"`
	IsAdmin  bool
}

func (userRecord) TableName() string { return "users" }

type entryRecord struct {
	UserID   string `gorm:"primaryKey"`
	ID       string `gorm:"primaryKey"`
	Position int64  `gorm:"index"`
	Date     string
	Status   string
	Rating   int
	Comment  string
	Keywords string // JSON array
	Factor   string
	Edited   bool
	EditedAt string
}

func (entryRecord) TableName() string { return "health_entries" }

func toUserRecord(u *internal.User) userRecord {
	return userRecord{ID: u.ID, Username: u.Username, Password: u.Password, Created: u.CreatedAt, IsAdmin: u.IsAdmin}
}

func (r userRecord) toUser() *internal.User {
	return &internal.User{ID: r.ID, Username: r.Username, Password: r.Password, CreatedAt: r.Created, IsAdmin: r.IsAdmin}
}

func entryColumnsFor(e *internal.HealthEntry) (map[string]any, error) {
	kw, err := json.Marshal(keywordsOrEmpty(e.Keywords))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":        e.ID,
		"date":      e.Date,
		"status":    string(e.Status),
		"rating":    e.Rating,
		"comment":   e.Comment,
		"keywords":  string(kw),
		"factor":    e.Factor,
		"edited":    e.Edited,
		"edited_at": e.EditedAt,
	}, nil
}

func (r entryRecord) toEntry() internal.HealthEntry {
	e := internal.HealthEntry{
		ID:       r.ID,
		Date:     r.Date,
		Status:   internal.Status(r.Status),
		Rating:   r.Rating,
		Comment:  r.Comment,
		Factor:   r.Factor,
		UserID:   r.UserID,
		Edited:   r.Edited,
		EditedAt: r.EditedAt,
	}
	if err := json.Unmarshal([]byte(r.Keywords), &e.Keywords); err != nil || e.Keywords == nil {
		e.Keywords = []string{}
	}
	return e
}

// SQLiteStorage is the single-file embedded backend. It uses the same
// position scheme as PostgresStorage.
type SQLiteStorage struct {
	db     *gorm.DB
	logger internal.Logger
}

func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir for %s: %w", path, err)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logger.Errorf("failed to open sqlite %s: %v", path, err)
		return nil, err
	}
	if err := db.AutoMigrate(&userRecord{}, &entryRecord{}); err != nil {
		logger.Errorf("failed to migrate sqlite: %v", err)
		return nil, err
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- UserRepository ---

func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]internal.User, error) {
	var records []userRecord
	if err := s.db.WithContext(ctx).Order("rowid").Find(&records).Error; err != nil {
		s.logger.Errorf("failed to query users: %v", err)
		return nil, err
	}
	users := make([]internal.User, 0, len(records))
	for _, r := range records {
		users = append(users, *r.toUser())
	}
	return users, nil
}

func (s *SQLiteStorage) getUser(ctx context.Context, column, value string) (*internal.User, error) {
	var r userRecord
	err := s.db.WithContext(ctx).Where(column+" = ?", value).Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("storage: user %q: %w", value, internal.ErrNotFound)
	}
	if err != nil {
		s.logger.Errorf("failed to query user: %v", err)
		return nil, err
	}
	return r.toUser(), nil
}

func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *SQLiteStorage) CreateUser(ctx context.Context, user *internal.User) error {
	r := toUserRecord(user)
	err := s.db.WithContext(ctx).Create(&r).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("storage: username %q: %w", user.Username, internal.ErrAlreadyExists)
	}
	if err != nil {
		s.logger.Errorf("failed to insert user: %v", err)
		return err
	}
	return nil
}

// --- EntryRepository ---

func (s *SQLiteStorage) ListEntries(ctx context.Context, userID string) ([]internal.HealthEntry, error) {
	var records []entryRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("position").Find(&records).Error; err != nil {
		s.logger.Errorf("failed to query entries: %v", err)
		return nil, err
	}
	entries := make([]internal.HealthEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}

func boundaryPosition(tx *gorm.DB, userID, agg string) (int64, error) {
	var pos int64
	err := tx.Model(&entryRecord{}).Where("user_id = ?", userID).
		Select("COALESCE(" + agg + "(position), 0)").Scan(&pos).Error
	return pos, err
}

func insertEntry(tx *gorm.DB, userID string, position int64, e *internal.HealthEntry) error {
	cols, err := entryColumnsFor(e)
	if err != nil {
		return err
	}
	cols["user_id"] = userID
	cols["position"] = position
	return tx.Model(&entryRecord{}).Create(cols).Error
}

func (s *SQLiteStorage) AppendEntry(ctx context.Context, userID string, e *internal.HealthEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		min, err := boundaryPosition(tx, userID, "MIN")
		if err != nil {
			return err
		}
		return insertEntry(tx, userID, min-1, e)
	})
	if err != nil {
		s.logger.Errorf("failed to insert entry: %v", err)
	}
	return err
}

func (s *SQLiteStorage) UpdateEntry(ctx context.Context, userID string, e *internal.HealthEntry) error {
	cols, err := entryColumnsFor(e)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target entryRecord
		err := tx.Where("user_id = ? AND id = ?", userID, e.ID).Take(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) && matchesByDate(*e) {
			err = tx.Where("user_id = ? AND date = ?", userID, e.Date).Order("position").Take(&target).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("storage: entry %s: %w", e.ID, internal.ErrNotFound)
		}
		if err != nil {
			s.logger.Errorf("failed to locate entry: %v", err)
			return err
		}
		return tx.Model(&entryRecord{}).
			Where("user_id = ? AND position = ?", userID, target.Position).
			Updates(cols).Error
	})
}

func (s *SQLiteStorage) MergeEntries(ctx context.Context, userID string, incoming []internal.HealthEntry) (int, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range incoming {
			e := &incoming[i]
			cols, err := entryColumnsFor(e)
			if err != nil {
				return err
			}
			res := tx.Model(&entryRecord{}).Where("user_id = ? AND id = ?", userID, e.ID).Updates(cols)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				continue
			}
			max, err := boundaryPosition(tx, userID, "MAX")
			if err != nil {
				return err
			}
			if err := insertEntry(tx, userID, max+1, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Errorf("failed to merge entries: %v", err)
		return 0, err
	}
	return len(incoming), nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*SQLiteStorage)(nil)
var _ EntryRepository = (*SQLiteStorage)(nil)
