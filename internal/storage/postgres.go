package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/storage/migrations"
)

const pgUniqueViolation = "23505"

// PostgresStorage keeps the per-user ordering in a position column: prepends
// take min-1, merges append at max+1, and lists read in ascending position.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Errorf("failed to ping postgres: %v", err)
		return nil, err
	}
	p := &PostgresStorage{pool: pool, logger: logger}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// gooseUpContext is a seam for tests.
var gooseUpContext = goose.UpContext

func (p *PostgresStorage) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(p.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		p.logger.Errorf("failed to run migrations: %v", err)
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- UserRepository ---

const userColumns = `id, username, password, created_at, is_admin`

func scanUser(row pgx.Row) (*internal.User, error) {
	var u internal.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.CreatedAt, &u.IsAdmin); err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *PostgresStorage) ListUsers(ctx context.Context) ([]internal.User, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		p.logger.Errorf("failed to query users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := []internal.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			p.logger.Errorf("failed to scan user: %v", err)
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (p *PostgresStorage) getUser(ctx context.Context, where string, arg string) (*internal.User, error) {
	u, err := scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("storage: user %q: %w", arg, internal.ErrNotFound)
	}
	if err != nil {
		p.logger.Errorf("failed to query user: %v", err)
		return nil, err
	}
	return u, nil
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return p.getUser(ctx, "id", id)
}

func (p *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	return p.getUser(ctx, "username", username)
}

func (p *PostgresStorage) CreateUser(ctx context.Context, user *internal.User) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Password, user.CreatedAt, user.IsAdmin)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("storage: username %q: %w", user.Username, internal.ErrAlreadyExists)
	}
	if err != nil {
		p.logger.Errorf("failed to insert user: %v", err)
		return err
	}
	return nil
}

// --- EntryRepository ---

const entryColumns = `id, date, status, rating, comment, keywords, factor, user_id, edited, edited_at`

func keywordsOrEmpty(k []string) []string {
	if k == nil {
		return []string{}
	}
	return k
}

func (p *PostgresStorage) ListEntries(ctx context.Context, userID string) ([]internal.HealthEntry, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+entryColumns+` FROM health_entries WHERE user_id = $1 ORDER BY position`, userID)
	if err != nil {
		p.logger.Errorf("failed to query entries: %v", err)
		return nil, err
	}
	defer rows.Close()

	entries := []internal.HealthEntry{}
	for rows.Next() {
		var e internal.HealthEntry
		var status string
		err := rows.Scan(&e.ID, &e.Date, &status, &e.Rating, &e.Comment, &e.Keywords, &e.Factor, &e.UserID, &e.Edited, &e.EditedAt)
		if err != nil {
			p.logger.Errorf("failed to scan entry: %v", err)
			return nil, err
		}
		e.Status = internal.Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *PostgresStorage) AppendEntry(ctx context.Context, userID string, e *internal.HealthEntry) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO health_entries (position, `+entryColumns+`)
		VALUES ((SELECT COALESCE(MIN(position), 0) - 1 FROM health_entries WHERE user_id = $8),
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Date, string(e.Status), e.Rating, e.Comment, keywordsOrEmpty(e.Keywords), e.Factor, userID, e.Edited, e.EditedAt)
	if err != nil {
		p.logger.Errorf("failed to insert entry: %v", err)
		return err
	}
	return nil
}

const updateEntrySet = `SET id = $3, date = $4, status = $5, rating = $6, comment = $7, keywords = $8,
	factor = $9, edited = $10, edited_at = $11`

func (p *PostgresStorage) UpdateEntry(ctx context.Context, userID string, e *internal.HealthEntry) error {
	args := []any{userID, e.ID, e.ID, e.Date, string(e.Status), e.Rating, e.Comment, keywordsOrEmpty(e.Keywords), e.Factor, e.Edited, e.EditedAt}

	tag, err := p.pool.Exec(ctx, `UPDATE health_entries `+updateEntrySet+` WHERE user_id = $1 AND id = $2`, args...)
	if err != nil {
		p.logger.Errorf("failed to update entry: %v", err)
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if !matchesByDate(*e) {
		return fmt.Errorf("storage: entry %s: %w", e.ID, internal.ErrNotFound)
	}

	args[1] = e.Date
	tag, err = p.pool.Exec(ctx, `UPDATE health_entries `+updateEntrySet+`
		WHERE user_id = $1 AND position = (
			SELECT position FROM health_entries WHERE user_id = $1 AND date = $2 ORDER BY position LIMIT 1)`, args...)
	if err != nil {
		p.logger.Errorf("failed to update entry by date: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: entry %s: %w", e.ID, internal.ErrNotFound)
	}
	return nil
}

func (p *PostgresStorage) MergeEntries(ctx context.Context, userID string, incoming []internal.HealthEntry) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	for _, e := range incoming {
		tag, err := tx.Exec(ctx, `UPDATE health_entries `+updateEntrySet+` WHERE user_id = $1 AND id = $2`,
			userID, e.ID, e.ID, e.Date, string(e.Status), e.Rating, e.Comment, keywordsOrEmpty(e.Keywords), e.Factor, e.Edited, e.EditedAt)
		if err != nil {
			p.logger.Errorf("failed to merge entry %s: %v", e.ID, err)
			return 0, err
		}
		if tag.RowsAffected() > 0 {
			continue
		}
		_, err = tx.Exec(ctx, `INSERT INTO health_entries (position, `+entryColumns+`)
			VALUES ((SELECT COALESCE(MAX(position), 0) + 1 FROM health_entries WHERE user_id = $8),
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			e.ID, e.Date, string(e.Status), e.Rating, e.Comment, keywordsOrEmpty(e.Keywords), e.Factor, userID, e.Edited, e.EditedAt)
		if err != nil {
			p.logger.Errorf("failed to insert merged entry %s: %v", e.ID, err)
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(incoming), nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*PostgresStorage)(nil)
var _ EntryRepository = (*PostgresStorage)(nil)
