// Package usecase implements the business rules of the link shortener: short ID
// allocation, link creation, redirect resolution and user authentication.
package usecase

import (
	"io"
	"log/slog"
	"time"
)

// Option configures optional collaborators of a use case.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock replaces the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger. Defaults to a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
