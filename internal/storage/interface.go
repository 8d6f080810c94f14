package storage

import (
	"context"
	"time"

	"github.com/yourname/macrotracker/internal"
)

// SessionRepository persists per-session nutrient totals. GetSession returns
// internal.ErrSessionNotFound for unknown or expired sessions.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*internal.Session, error)
	SaveSession(ctx context.Context, session *internal.Session) error
	DeleteSession(ctx context.Context, id string) error
	// PurgeExpired removes every session idle for longer than the store TTL
	// and reports how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
	Close() error
}

func expired(s *internal.Session, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}
