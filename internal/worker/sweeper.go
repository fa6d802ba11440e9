package worker

import (
	"context"
	"log/slog"
	"time"
)

type expiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired links.
type Sweeper struct {
	repo     expiredDeleter
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewSweeper(repo expiredDeleter, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run sweeps once per interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	const op = "worker.Sweeper.sweep"

	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to delete expired links", slog.Group(op, slog.Any("err", err)))
		return
	}

	if n > 0 {
		s.logger.Info("deleted expired links", slog.Int64("count", n))
	}
}
