package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Rapter1990/carservice-sub000/internal/auth/store"
)

const (
	defaultHousekeepingInterval = time.Hour

	// cleanupTimeout bounds a single pruning pass.
	cleanupTimeout = 30 * time.Second
)

// HousekeepingService prunes revocation records whose token can no longer
// verify. Verification accepts a token until exp + Leeway, so a record is
// kept at least that long.
type HousekeepingService struct {
	Revoked  store.RevokedTokens
	Logger   *slog.Logger
	Interval time.Duration
	Leeway   time.Duration
	Now      func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewHousekeepingService falls back to an hourly pass when interval is
// not positive.
func NewHousekeepingService(revoked store.RevokedTokens, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = defaultHousekeepingInterval
	}
	return &HousekeepingService{
		Revoked:  revoked,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start launches the worker. It prunes once right away, then every
// Interval until Stop.
func (s *HousekeepingService) Start() {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go s.loop(ctx)
		s.Logger.Info("housekeeping started", "interval", s.Interval)
	})
}

// Stop cancels the worker and waits for an in-flight pass to return.
// Calling it without Start, or twice, is harmless.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
		s.Logger.Info("housekeeping stopped")
	})
}

func (s *HousekeepingService) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.pass(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *HousekeepingService) pass(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()
	s.Cleanup(ctx)
}

// Cleanup runs one pruning pass and returns how many records it removed.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	n, err := s.Revoked.DeleteExpired(ctx, s.Now().Add(-s.Leeway))
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("pruning expired revocations failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.Logger.Info("pruned expired revocations", "deleted", n)
	} else {
		s.Logger.Debug("no expired revocations to prune")
	}
	return n
}
