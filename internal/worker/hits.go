// Package worker runs the background jobs of the service: hit counting for
// redirects and the removal of expired links from stores without native TTL.
package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

type hitIncrementer interface {
	IncrementHits(ctx context.Context, shortID string) error
}

// HitWorker increments hit counters off the request path. Hits are queued
// in a bounded buffer; when it is full the hit is dropped.
type HitWorker struct {
	repo    hitIncrementer
	queue   chan string
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

func NewHitWorker(repo hitIncrementer, logger *slog.Logger, workers, queueSize int, timeout time.Duration) *HitWorker {
	return &HitWorker{
		repo:    repo,
		queue:   make(chan string, queueSize),
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
}

// Record enqueues a hit for shortID. It never blocks.
func (w *HitWorker) Record(shortID string) {
	select {
	case w.queue <- shortID:
	default:
		w.logger.Warn("hit queue is full, dropping hit", slog.String("short_id", shortID))
	}
}

// Run consumes queued hits until ctx is done, then drains what is left.
func (w *HitWorker) Run(ctx context.Context) error {
	var g errgroup.Group

	for range w.workers {
		g.Go(func() error {
			w.consume(ctx)
			return nil
		})
	}

	return g.Wait()
}

// consume stops on ctx but never cancels an increment with it; each
// increment is bounded by the worker timeout instead.
func (w *HitWorker) consume(ctx context.Context) {
	incCtx := context.WithoutCancel(ctx)

	for {
		select {
		case shortID := <-w.queue:
			w.increment(incCtx, shortID)
		case <-ctx.Done():
			w.drain(incCtx)
			return
		}
	}
}

func (w *HitWorker) drain(ctx context.Context) {
	for {
		select {
		case shortID := <-w.queue:
			w.increment(ctx, shortID)
		default:
			return
		}
	}
}

func (w *HitWorker) increment(ctx context.Context, shortID string) {
	const op = "worker.HitWorker.increment"

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.repo.IncrementHits(ctx, shortID); err != nil {
		w.logger.Error("failed to increment hit count",
			slog.String("short_id", shortID),
			slog.Group(op, slog.Any("err", err)),
		)
	}
}
