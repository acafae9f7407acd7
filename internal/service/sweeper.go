package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type DueEventCompleter interface {
	CompleteDue(ctx context.Context) (int, error)
}

// Sweeper periodically completes approved events whose end date passed.
type Sweeper struct {
	completer DueEventCompleter
	interval  time.Duration
	mu        sync.Mutex
}

func NewSweeper(completer DueEventCompleter, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Sweeper{
		completer: completer,
		interval:  interval,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass. It returns false without doing anything when a
// previous pass is still running.
func (s *Sweeper) Sweep(ctx context.Context) bool {
	if !s.mu.TryLock() {
		zap.L().Debug("event sweep already running, skipping")
		return false
	}
	defer s.mu.Unlock()

	n, err := s.completer.CompleteDue(ctx)
	if err != nil {
		zap.L().Error("event sweep failed", zap.Error(err))
	}
	if n > 0 {
		zap.L().Info("event sweep completed events", zap.Int("count", n))
	}

	return true
}
