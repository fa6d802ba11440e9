package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type linkRepository interface {
	Exists(ctx context.Context, shortID string) (bool, error)
	Get(ctx context.Context, shortID string) (*entity.ShortLink, error)
	Save(ctx context.Context, link *entity.ShortLink) error
}

type idGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// ShortenInput is a request to create a short link.
type ShortenInput struct {
	LongURL       string
	CustomShortID string
	OwnerID       string
	Metadata      RequestMetadata
}

// LinkUseCase creates short links and reports their stats to owners.
type LinkUseCase struct {
	repo        linkRepository
	gen         idGenerator
	baseURL     string
	retention   time.Duration
	maxAttempts int
	now         func() time.Time
	logger      *slog.Logger
}

func NewLinkUseCase(
	repo linkRepository,
	gen idGenerator,
	baseURL string,
	retention time.Duration,
	maxAttempts int,
	opts ...Option,
) *LinkUseCase {
	o := newOptions(opts)

	return &LinkUseCase{
		repo:        repo,
		gen:         gen,
		baseURL:     baseURL,
		retention:   retention,
		maxAttempts: maxAttempts,
		now:         o.now,
		logger:      o.logger,
	}
}

// Shorten creates and persists a short link for in.LongURL.
//
// A custom short ID is honored only for authenticated owners and is never
// retried: a taken ID fails with entity.ErrShortIDExists. Generated IDs are
// written conditionally, and a write that loses a race to a concurrent
// creation triggers a fresh ID, up to maxAttempts times.
func (uc *LinkUseCase) Shorten(ctx context.Context, in ShortenInput) (*entity.ShortLink, error) {
	const op = "usecase.LinkUseCase.Shorten"

	if strings.TrimSpace(in.LongURL) == "" {
		return nil, fmt.Errorf("%s: long url is required: %w", op, entity.ErrInvalidInput)
	}

	ownerID := in.OwnerID
	if entity.IsAnonymous(ownerID) {
		ownerID = entity.AnonymousOwner
	}

	createdAt := uc.now().UTC().Truncate(time.Second)
	link := &entity.ShortLink{
		LongURL:   in.LongURL,
		OwnerID:   ownerID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(uc.retention).Unix(),
		Analytics: deriveAnalytics(in.Metadata, in.LongURL),
	}

	if in.CustomShortID != "" && !entity.IsAnonymous(ownerID) {
		if err := uc.saveCustom(ctx, link, in.CustomShortID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return link, nil
	}

	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		shortID, err := uc.gen.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		uc.assign(link, shortID)

		err = uc.repo.Save(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, entity.ErrShortIDExists) {
			return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
		}

		uc.logger.Warn("short id taken between check and write",
			slog.String("short_id", shortID),
			slog.Int("attempt", attempt),
		)
	}

	return nil, fmt.Errorf("%s: %w after %d write attempts", op, entity.ErrGenerationExhausted, uc.maxAttempts)
}

func (uc *LinkUseCase) saveCustom(ctx context.Context, link *entity.ShortLink, shortID string) error {
	exists, err := uc.repo.Exists(ctx, shortID)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, err)
	}
	if exists {
		return fmt.Errorf("custom short id %q: %w", shortID, entity.ErrShortIDExists)
	}

	uc.assign(link, shortID)

	if err := uc.repo.Save(ctx, link); err != nil {
		if errors.Is(err, entity.ErrShortIDExists) {
			return fmt.Errorf("custom short id %q: %w", shortID, err)
		}

		return fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, err)
	}

	return nil
}

func (uc *LinkUseCase) assign(link *entity.ShortLink, shortID string) {
	link.ShortID = shortID
	link.ShortURL = uc.baseURL + shortID
}

// Stats returns the link identified by shortID to its owner. Links owned by
// someone else, and any request from an anonymous caller, report
// entity.ErrLinkNotFound.
func (uc *LinkUseCase) Stats(ctx context.Context, shortID, ownerID string) (*entity.ShortLink, error) {
	const op = "usecase.LinkUseCase.Stats"

	if entity.IsAnonymous(ownerID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link, err := uc.repo.Get(ctx, shortID)
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if link.OwnerID != ownerID || link.Expired(uc.now()) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return link, nil
}
