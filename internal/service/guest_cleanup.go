// Package service holds background jobs that run next to the HTTP API
package service

import (
	"bitrook/stashbin-api/internal/identity"
	"time"

	"go.uber.org/zap"
)

// GuestCleanup periodically reclaims guest identities that haven't been seen
// for staleAfter. Stash items still pointing at a reclaimed guest simply
// lose their owner
func GuestCleanup(t time.Duration, staleAfter time.Duration, m *identity.Manager) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Guest cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			n, err := m.Reclaim(staleAfter)
			if err != nil {
				zap.L().Error("Failed to reclaim stale guests", zap.Error(err))
				continue
			}

			if n > 0 {
				zap.L().Debug("Reclaimed stale guests", zap.Int64("count", n))
			}
		}
	}()
}
