package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrCode
}

type linkDB struct {
	ShortID   string         `db:"short_id"`
	LongURL   string         `db:"long_url"`
	ShortURL  string         `db:"short_url"`
	OwnerID   string         `db:"owner_id"`
	CreatedAt time.Time      `db:"created_at"`
	ExpiresAt int64          `db:"expires_at"`
	HitCount  int64          `db:"hit_count"`
	Analytics types.JSONText `db:"analytics"`
}

func (l *linkDB) toEntity() (*entity.ShortLink, error) {
	var analytics map[string]string
	if err := l.Analytics.Unmarshal(&analytics); err != nil {
		return nil, fmt.Errorf("failed to decode analytics: %w", err)
	}

	return &entity.ShortLink{
		ShortID:   l.ShortID,
		LongURL:   l.LongURL,
		ShortURL:  l.ShortURL,
		OwnerID:   l.OwnerID,
		CreatedAt: l.CreatedAt.UTC(),
		ExpiresAt: l.ExpiresAt,
		HitCount:  l.HitCount,
		Analytics: analytics,
	}, nil
}

func encodeAnalytics(analytics map[string]string) (types.JSONText, error) {
	if analytics == nil {
		return types.JSONText("{}"), nil
	}

	data, err := json.Marshal(analytics)
	if err != nil {
		return nil, err
	}

	return types.JSONText(data), nil
}

// LinkRepository stores links in the links table. Expired rows stay until
// DeleteExpired removes them, but are invisible to reads and may be
// overwritten by Save.
type LinkRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewLinkRepository returns a repository over the links table.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *LinkRepository) Exists(ctx context.Context, shortID string) (bool, error) {
	const op = "adapter.repository.postgres.LinkRepository.Exists"
	const query = `SELECT EXISTS(SELECT 1 FROM links WHERE short_id = $1 AND expires_at > $2)`

	var exists bool

	if err := r.db.GetContext(ctx, &exists, query, shortID, r.now().Unix()); err != nil {
		return false, fmt.Errorf("%s: failed to query links table: %w", op, err)
	}

	return exists, nil
}

func (r *LinkRepository) Get(ctx context.Context, shortID string) (*entity.ShortLink, error) {
	const op = "adapter.repository.postgres.LinkRepository.Get"
	const query = `
		SELECT short_id, long_url, short_url, owner_id, created_at, expires_at, hit_count, analytics
		FROM links
		WHERE short_id = $1 AND expires_at > $2`

	var link linkDB

	if err := r.db.GetContext(ctx, &link, query, shortID, r.now().Unix()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w", op, err)
	}

	res, err := link.toEntity()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// Save inserts link. When the short ID belongs to an expired row, that row is
// replaced; when it belongs to a live one, entity.ErrShortIDExists is returned.
func (r *LinkRepository) Save(ctx context.Context, link *entity.ShortLink) error {
	const op = "adapter.repository.postgres.LinkRepository.Save"
	const insertQuery = `
		INSERT INTO links(short_id, long_url, short_url, owner_id, created_at, expires_at, hit_count, analytics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	const reclaimQuery = `
		UPDATE links
		SET long_url = $2, short_url = $3, owner_id = $4, created_at = $5, expires_at = $6, hit_count = $7, analytics = $8
		WHERE short_id = $1 AND expires_at <= $9`

	analytics, err := encodeAnalytics(link.Analytics)
	if err != nil {
		return fmt.Errorf("%s: failed to encode analytics: %w", op, err)
	}

	args := []any{
		link.ShortID,
		link.LongURL,
		link.ShortURL,
		link.OwnerID,
		link.CreatedAt,
		link.ExpiresAt,
		link.HitCount,
		analytics,
	}

	_, err = r.db.ExecContext(ctx, insertQuery, args...)
	if err == nil {
		return nil
	}

	if !isUniqueViolationError(err) {
		return fmt.Errorf("%s: failed to insert into links table: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, reclaimQuery, append(args, r.now().Unix())...)
	if err != nil {
		return fmt.Errorf("%s: failed to replace expired row: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrShortIDExists)
	}

	return nil
}

func (r *LinkRepository) IncrementHits(ctx context.Context, shortID string) error {
	const op = "adapter.repository.postgres.LinkRepository.IncrementHits"
	const query = `UPDATE links SET hit_count = hit_count + 1 WHERE short_id = $1`

	res, err := r.db.ExecContext(ctx, query, shortID)
	if err != nil {
		return fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

// DeleteExpired removes every row whose expiry is at or before now and
// reports how many were removed.
func (r *LinkRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "adapter.repository.postgres.LinkRepository.DeleteExpired"
	const query = `DELETE FROM links WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete from links table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	return rowsAffected, nil
}
