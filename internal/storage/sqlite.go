package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourname/macrotracker/internal"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    calories    REAL NOT NULL DEFAULT 0,
    protein     REAL NOT NULL DEFAULT 0,
    carbs       REAL NOT NULL DEFAULT 0,
    fat         REAL NOT NULL DEFAULT 0,
    fiber       REAL NOT NULL DEFAULT 0,
    foods       TEXT NOT NULL DEFAULT '[]',
    tokens_used INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

// sqliteTime is RFC 3339 with fixed-width nanoseconds, so stored timestamps
// sort as strings.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStorage struct {
	db     *sql.DB
	ttl    time.Duration
	logger internal.Logger
}

func NewSQLiteStorage(dbPath string, ttl time.Duration, logger internal.Logger) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps writers serialised and lets ":memory:" work.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db, ttl: ttl, logger: logger}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- SessionRepository ---
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*internal.Session, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, calories, protein, carbs, fat, fiber, foods, tokens_used, created_at, updated_at
        FROM sessions WHERE id = ?`, id)

	var sess internal.Session
	var foods, createdAt, updatedAt string
	t := &sess.Totals
	err := row.Scan(&sess.ID, &t.Calories, &t.Protein, &t.Carbs, &t.Fat, &t.Fiber, &foods, &t.TokensUsed, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internal.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(foods), &t.Foods); err != nil {
		return nil, fmt.Errorf("failed to decode food log: %w", err)
	}
	if t.Foods == nil {
		t.Foods = []string{}
	}
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	if expired(&sess, s.ttl, time.Now()) {
		_ = s.DeleteSession(ctx, id)
		return nil, internal.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SQLiteStorage) SaveSession(ctx context.Context, sess *internal.Session) error {
	foods := sess.Totals.Foods
	if foods == nil {
		foods = []string{}
	}
	foodsJSON, err := json.Marshal(foods)
	if err != nil {
		return fmt.Errorf("failed to encode food log: %w", err)
	}

	t := sess.Totals
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO sessions (id, calories, protein, carbs, fat, fiber, foods, tokens_used, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            calories = excluded.calories, protein = excluded.protein, carbs = excluded.carbs,
            fat = excluded.fat, fiber = excluded.fiber, foods = excluded.foods,
            tokens_used = excluded.tokens_used, updated_at = excluded.updated_at`,
		sess.ID, t.Calories, t.Protein, t.Carbs, t.Fat, t.Fiber, string(foodsJSON), t.TokensUsed,
		sess.CreatedAt.UTC().Format(sqliteTime), sess.UpdatedAt.UTC().Format(sqliteTime))
	if err != nil {
		s.logger.Errorf("failed to upsert session: %v", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) PurgeExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-s.ttl).UTC().Format(sqliteTime)
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		s.logger.Errorf("failed to purge expired sessions: %v", err)
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return res.RowsAffected()
}

var _ SessionRepository = (*SQLiteStorage)(nil)
