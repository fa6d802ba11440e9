// Package cache keeps recently resolved links in memory in front of a slower
// store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type linkReader interface {
	Get(ctx context.Context, shortID string) (*entity.ShortLink, error)
}

type Config struct {
	NumCounters int64
	MaxCost     int64
	TTL         time.Duration
}

// LinkReader serves Get from memory when possible. Entries never outlive the
// link's expiry. Hit counts of cached links are not refreshed, so it is only
// suitable for the redirect path.
type LinkReader struct {
	next  linkReader
	cache *ristretto.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewLinkReader(next linkReader, cfg Config) (*LinkReader, error) {
	const op = "adapter.repository.cache.NewLinkReader"

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create cache: %w", op, err)
	}

	return &LinkReader{
		next:  next,
		cache: c,
		ttl:   cfg.TTL,
		now:   time.Now,
	}, nil
}

func (r *LinkReader) Get(ctx context.Context, shortID string) (*entity.ShortLink, error) {
	if v, ok := r.cache.Get(shortID); ok {
		link := v.(*entity.ShortLink)
		if !link.Expired(r.now()) {
			return link, nil
		}
		r.cache.Del(shortID)
	}

	link, err := r.next.Get(ctx, shortID)
	if err != nil {
		return nil, err
	}

	ttl := min(r.ttl, time.Unix(link.ExpiresAt, 0).Sub(r.now()))
	if ttl > 0 {
		r.cache.SetWithTTL(shortID, link, 1, ttl)
	}

	return link, nil
}

// Wait blocks until pending writes are visible to Get.
func (r *LinkReader) Wait() {
	r.cache.Wait()
}

func (r *LinkReader) Close() {
	r.cache.Close()
}
