package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourname/macrotracker/internal"
)

const redisKeyPrefix = "macrotracker:session:"

// RedisStorage stores each session as a JSON blob whose key expires after the
// session TTL, refreshed on every save.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	logger internal.Logger
}

func NewRedisStorage(ctx context.Context, opts *redis.Options, ttl time.Duration, logger internal.Logger) (*RedisStorage, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		logger.Errorf("failed to connect to redis at %s: %v", opts.Addr, err)
		return nil, fmt.Errorf("storage: redis ping: %w", err)
	}
	return &RedisStorage{client: client, ttl: ttl, logger: logger}, nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

// --- SessionRepository ---
func (r *RedisStorage) GetSession(ctx context.Context, id string) (*internal.Session, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, internal.ErrSessionNotFound
	}
	if err != nil {
		r.logger.Errorf("failed to get session from redis: %v", err)
		return nil, err
	}

	var s internal.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("storage: decode session %s: %w", id, err)
	}
	if s.Totals.Foods == nil {
		s.Totals.Foods = []string{}
	}
	return &s, nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, s *internal.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("storage: encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, redisKey(s.ID), data, r.ttl).Err(); err != nil {
		r.logger.Errorf("failed to save session to redis: %v", err)
		return err
	}
	return nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		r.logger.Errorf("failed to delete session from redis: %v", err)
		return err
	}
	return nil
}

// PurgeExpired is a no-op: redis drops session keys when their TTL runs out.
func (r *RedisStorage) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

var _ SessionRepository = (*RedisStorage)(nil)
