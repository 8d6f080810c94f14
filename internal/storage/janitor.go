package storage

import (
	"context"
	"time"

	"github.com/yourname/macrotracker/internal"
)

// RunJanitor purges expired sessions from repo every interval until ctx is
// done.
func RunJanitor(ctx context.Context, repo SessionRepository, interval time.Duration, logger internal.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				logger.Errorf("storage: purge expired sessions: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("storage: purged %d expired sessions", n)
			}
		}
	}
}
