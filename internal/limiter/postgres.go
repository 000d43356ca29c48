package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGStore is a PostgreSQL-backed bucket store over the rate_limit_buckets table.
type PGStore struct {
	pool Querier
}

// Querier is the subset of a pgx pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed store.
func NewPG(q Querier) *PGStore {
	return &PGStore{pool: q}
}

// Incr implements Store with a single upsert, so concurrent hits serialize on the row.
func (s *PGStore) Incr(ctx context.Context, key string, now time.Time, window time.Duration) (Bucket, error) {
	const q = `
INSERT INTO rate_limit_buckets (key, count, reset_at)
VALUES ($1, 1, $3)
ON CONFLICT (key) DO UPDATE
SET
  count = CASE WHEN $2 > rate_limit_buckets.reset_at THEN 1 ELSE rate_limit_buckets.count + 1 END,
  reset_at = CASE WHEN $2 > rate_limit_buckets.reset_at THEN $3 ELSE rate_limit_buckets.reset_at END
RETURNING count, reset_at`
	var b Bucket
	if err := s.pool.QueryRow(ctx, q, key, now, now.Add(window)).Scan(&b.Count, &b.ResetAt); err != nil {
		return Bucket{}, err
	}
	return b, nil
}

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, key string) (Bucket, bool, error) {
	const q = `SELECT count, reset_at FROM rate_limit_buckets WHERE key=$1`
	var b Bucket
	err := s.pool.QueryRow(ctx, q, key).Scan(&b.Count, &b.ResetAt)
	switch {
	case err == nil:
		return b, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return Bucket{}, false, nil
	default:
		return Bucket{}, false, err
	}
}

// Reset implements Store.
func (s *PGStore) Reset(ctx context.Context, key string) error {
	const q = `DELETE FROM rate_limit_buckets WHERE key=$1`
	_, err := s.pool.Exec(ctx, q, key)
	return err
}

// Sweep deletes buckets whose window ended before now.
func (s *PGStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM rate_limit_buckets WHERE reset_at < $1`
	tag, err := s.pool.Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
