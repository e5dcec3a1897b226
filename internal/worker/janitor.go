// Package worker provides background maintenance for session storage.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

// Sessions past their token expiry by this much are unrecoverable garbage:
// the refresh flow would have extended them long before.
const defaultRetention = 30 * 24 * time.Hour

// Janitor periodically prunes long-expired sessions.
type Janitor struct {
	repo      ports.SessionRepository
	interval  time.Duration
	retention time.Duration
	logger    *log.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewJanitor creates a janitor pruning on the given interval.
func NewJanitor(repo ports.SessionRepository, interval time.Duration, logger *log.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{
		repo:      repo,
		interval:  interval,
		retention: defaultRetention,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// Start launches the pruning goroutine.
func (j *Janitor) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.prune()
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop waits for the pruning goroutine to finish.
func (j *Janitor) Stop() {
	close(j.stop)
	j.wg.Wait()
}

func (j *Janitor) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	removed, err := j.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		j.logger.Warn("janitor: session prune failed", "err", err)
		return
	}
	if removed > 0 {
		j.logger.Info("janitor: pruned expired sessions", "count", removed)
	}
}
