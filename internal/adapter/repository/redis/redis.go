// Package redis stores links as Redis hashes, one key per short ID, expiring
// natively at the link's expires_at.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// saveScript writes the hash only when the key is absent. Expired keys are
// already gone, so they are reclaimed naturally.
var saveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1],
	'short_id', ARGV[1],
	'long_url', ARGV[2],
	'short_url', ARGV[3],
	'owner_id', ARGV[4],
	'created_at', ARGV[5],
	'expires_at', ARGV[6],
	'hit_count', ARGV[7],
	'analytics', ARGV[8])
redis.call('EXPIREAT', KEYS[1], ARGV[6])
return 1
`)

// incrementScript never creates a key.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'hit_count', 1)
`)

type linkHash struct {
	ShortID   string `redis:"short_id"`
	LongURL   string `redis:"long_url"`
	ShortURL  string `redis:"short_url"`
	OwnerID   string `redis:"owner_id"`
	CreatedAt string `redis:"created_at"`
	ExpiresAt int64  `redis:"expires_at"`
	HitCount  int64  `redis:"hit_count"`
	Analytics string `redis:"analytics"`
}

func (h *linkHash) toEntity() (*entity.ShortLink, error) {
	createdAt, err := time.Parse(time.RFC3339, h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	var analytics map[string]string
	if h.Analytics != "" {
		if err := json.Unmarshal([]byte(h.Analytics), &analytics); err != nil {
			return nil, fmt.Errorf("failed to decode analytics: %w", err)
		}
	}

	return &entity.ShortLink{
		ShortID:   h.ShortID,
		LongURL:   h.LongURL,
		ShortURL:  h.ShortURL,
		OwnerID:   h.OwnerID,
		CreatedAt: createdAt.UTC(),
		ExpiresAt: h.ExpiresAt,
		HitCount:  h.HitCount,
		Analytics: analytics,
	}, nil
}

type LinkRepository struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewLinkRepository returns a repository storing links under keys prefix+short_id.
func NewLinkRepository(client redis.UniversalClient, prefix string) *LinkRepository {
	return &LinkRepository{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *LinkRepository) key(shortID string) string {
	return r.prefix + shortID
}

func (r *LinkRepository) Exists(ctx context.Context, shortID string) (bool, error) {
	const op = "adapter.repository.redis.LinkRepository.Exists"

	n, err := r.client.Exists(ctx, r.key(shortID)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: failed to check key: %w", op, err)
	}

	return n == 1, nil
}

func (r *LinkRepository) Get(ctx context.Context, shortID string) (*entity.ShortLink, error) {
	const op = "adapter.repository.redis.LinkRepository.Get"

	cmd := r.client.HGetAll(ctx, r.key(shortID))

	fields, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read hash: %w", op, err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	var h linkHash
	if err := cmd.Scan(&h); err != nil {
		return nil, fmt.Errorf("%s: failed to scan hash: %w", op, err)
	}

	if h.ExpiresAt <= r.now().Unix() {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link, err := h.toEntity()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return link, nil
}

func (r *LinkRepository) Save(ctx context.Context, link *entity.ShortLink) error {
	const op = "adapter.repository.redis.LinkRepository.Save"

	analytics := []byte("{}")
	if link.Analytics != nil {
		var err error
		if analytics, err = json.Marshal(link.Analytics); err != nil {
			return fmt.Errorf("%s: failed to encode analytics: %w", op, err)
		}
	}

	created, err := saveScript.Run(ctx, r.client, []string{r.key(link.ShortID)},
		link.ShortID,
		link.LongURL,
		link.ShortURL,
		link.OwnerID,
		link.CreatedAt.UTC().Format(time.RFC3339),
		strconv.FormatInt(link.ExpiresAt, 10),
		strconv.FormatInt(link.HitCount, 10),
		string(analytics),
	).Int()
	if err != nil {
		return fmt.Errorf("%s: failed to run save script: %w", op, err)
	}

	if created == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrShortIDExists)
	}

	return nil
}

func (r *LinkRepository) IncrementHits(ctx context.Context, shortID string) error {
	const op = "adapter.repository.redis.LinkRepository.IncrementHits"

	n, err := incrementScript.Run(ctx, r.client, []string{r.key(shortID)}).Int64()
	if err != nil {
		return fmt.Errorf("%s: failed to run increment script: %w", op, err)
	}

	if n < 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}
