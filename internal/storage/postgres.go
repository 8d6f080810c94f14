package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourname/macrotracker/internal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    calories    DOUBLE PRECISION NOT NULL DEFAULT 0,
    protein     DOUBLE PRECISION NOT NULL DEFAULT 0,
    carbs       DOUBLE PRECISION NOT NULL DEFAULT 0,
    fat         DOUBLE PRECISION NOT NULL DEFAULT 0,
    fiber       DOUBLE PRECISION NOT NULL DEFAULT 0,
    foods       TEXT[] NOT NULL DEFAULT '{}',
    tokens_used INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	ttl    time.Duration
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, ttl time.Duration, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		logger.Errorf("failed to create sessions schema: %v", err)
		return nil, fmt.Errorf("storage: init schema: %w", err)
	}
	return &PostgresStorage{pool: pool, ttl: ttl, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- SessionRepository ---
func (p *PostgresStorage) GetSession(ctx context.Context, id string) (*internal.Session, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, calories, protein, carbs, fat, fiber, foods, tokens_used, created_at, updated_at FROM sessions WHERE id = $1`, id)
	var s internal.Session
	t := &s.Totals
	err := row.Scan(&s.ID, &t.Calories, &t.Protein, &t.Carbs, &t.Fat, &t.Fiber, &t.Foods, &t.TokensUsed, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internal.ErrSessionNotFound
	}
	if err != nil {
		p.logger.Errorf("failed to load session: %v", err)
		return nil, err
	}
	if expired(&s, p.ttl, time.Now()) {
		_ = p.DeleteSession(ctx, id)
		return nil, internal.ErrSessionNotFound
	}
	if t.Foods == nil {
		t.Foods = []string{}
	}
	return &s, nil
}

func (p *PostgresStorage) SaveSession(ctx context.Context, s *internal.Session) error {
	t := s.Totals
	foods := t.Foods
	if foods == nil {
		foods = []string{}
	}
	_, err := p.pool.Exec(ctx, `INSERT INTO sessions (id, calories, protein, carbs, fat, fiber, foods, tokens_used, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET calories = EXCLUDED.calories, protein = EXCLUDED.protein, carbs = EXCLUDED.carbs,
    fat = EXCLUDED.fat, fiber = EXCLUDED.fiber, foods = EXCLUDED.foods, tokens_used = EXCLUDED.tokens_used,
    updated_at = EXCLUDED.updated_at`,
		s.ID, t.Calories, t.Protein, t.Carbs, t.Fat, t.Fiber, foods, t.TokensUsed, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert session: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) DeleteSession(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		p.logger.Errorf("failed to delete session: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) PurgeExpired(ctx context.Context) (int64, error) {
	if p.ttl <= 0 {
		return 0, nil
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE updated_at < $1`, time.Now().Add(-p.ttl))
	if err != nil {
		p.logger.Errorf("failed to purge expired sessions: %v", err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ SessionRepository = (*PostgresStorage)(nil)
