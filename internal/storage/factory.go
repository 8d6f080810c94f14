package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yourname/macrotracker/internal"
	"github.com/yourname/macrotracker/internal/config"
)

// NewSessionRepository opens the backend named by cfg.StorageBackend.
func NewSessionRepository(ctx context.Context, cfg *config.Config, logger internal.Logger) (SessionRepository, error) {
	var (
		repo SessionRepository
		err  error
	)
	switch cfg.StorageBackend {
	case "file":
		repo, err = NewFileStorage(cfg.SessionsFile, cfg.SessionTTL, logger)
	case "postgres":
		repo, err = NewPostgresStorage(ctx, cfg.PostgresDSN, cfg.SessionTTL, logger)
	case "redis":
		repo, err = NewRedisStorage(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.SessionTTL, logger)
	case "sqlite":
		repo, err = NewSQLiteStorage(cfg.SQLitePath, cfg.SessionTTL, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, err
	}
	return repo, nil
}
