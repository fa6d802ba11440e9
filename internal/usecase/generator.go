package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/vadimbarashkov/shortlink/internal/entity"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the set of characters generated short IDs are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type linkChecker interface {
	Exists(ctx context.Context, shortID string) (bool, error)
}

// IDGenerator produces random short IDs of variable length that are not yet
// present in the store.
type IDGenerator struct {
	repo        linkChecker
	minLength   int
	maxLength   int
	maxAttempts int
	logger      *slog.Logger
}

func NewIDGenerator(repo linkChecker, minLength, maxLength, maxAttempts int, opts ...Option) *IDGenerator {
	o := newOptions(opts)

	return &IDGenerator{
		repo:        repo,
		minLength:   minLength,
		maxLength:   maxLength,
		maxAttempts: maxAttempts,
		logger:      o.logger,
	}
}

// Generate returns a short ID that did not exist at the time of the check.
// Each attempt picks a fresh length and issues exactly one existence lookup.
func (g *IDGenerator) Generate(ctx context.Context) (string, error) {
	const op = "usecase.IDGenerator.Generate"

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		length := g.minLength + rand.IntN(g.maxLength-g.minLength+1)

		shortID, err := gonanoid.Generate(Alphabet, length)
		if err != nil {
			return "", fmt.Errorf("%s: failed to generate short id: %w", op, err)
		}

		exists, err := g.repo.Exists(ctx, shortID)
		if err != nil {
			return "", fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
		}

		if !exists {
			return shortID, nil
		}

		g.logger.Warn("short id collision",
			slog.String("short_id", shortID),
			slog.Int("attempt", attempt),
		)
	}

	return "", fmt.Errorf("%s: %w after %d attempts", op, entity.ErrGenerationExhausted, g.maxAttempts)
}
