package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type linkReader interface {
	Get(ctx context.Context, shortID string) (*entity.ShortLink, error)
}

type hitRecorder interface {
	Record(shortID string)
}

// RedirectUseCase maps short IDs to their redirect targets.
type RedirectUseCase struct {
	repo        linkReader
	hits        hitRecorder
	fallbackURL string
	now         func() time.Time
	logger      *slog.Logger
}

func NewRedirectUseCase(repo linkReader, hits hitRecorder, fallbackURL string, opts ...Option) *RedirectUseCase {
	o := newOptions(opts)

	return &RedirectUseCase{
		repo:        repo,
		hits:        hits,
		fallbackURL: fallbackURL,
		now:         o.now,
		logger:      o.logger,
	}
}

// Resolve returns the redirect target for shortID. Unknown, expired and
// unreadable links resolve to the fallback URL. A successful resolution
// schedules a hit increment without waiting for it.
func (uc *RedirectUseCase) Resolve(ctx context.Context, shortID string) string {
	link, err := uc.repo.Get(ctx, shortID)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			uc.logger.Debug("short id not found", slog.String("short_id", shortID))
		} else {
			uc.logger.Error("failed to look up short id",
				slog.String("short_id", shortID),
				slog.Any("err", err),
			)
		}

		return uc.fallbackURL
	}

	if link.Expired(uc.now()) {
		uc.logger.Debug("short id expired", slog.String("short_id", shortID))
		return uc.fallbackURL
	}

	uc.hits.Record(link.ShortID)

	return link.LongURL
}
