package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// rateLimitRepo implements RateLimitRepo on the rate_limit_windows table.
type rateLimitRepo struct {
	s *Store
}

func (r *rateLimitRepo) GetWindow(ctx context.Context, key string) (*RateLimitWindow, error) {
	query, args := r.s.builder().Select("key", "window_start", "count").
		From(r.s.builder().Table(TableRateLimitWindows)).
		Where(entsql.EQ("key", key)).
		Query()

	var w RateLimitWindow
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&w.Key, &w.Start, &w.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate limit window %s: %w", key, err)
	}
	return &w, nil
}

func (r *rateLimitRepo) PutWindow(ctx context.Context, w RateLimitWindow) error {
	query, args := r.s.builder().Insert(TableRateLimitWindows).
		Columns("key", "window_start", "count", "updated_at").
		Values(w.Key, w.Start.UTC(), w.Count, time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put rate limit window %s: %w", w.Key, err)
	}
	return nil
}

func (r *rateLimitRepo) PruneWindows(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args := r.s.builder().Delete(TableRateLimitWindows).
		Where(entsql.LT("window_start", cutoff.UTC())).
		Query()
	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune rate limit windows: %w", err)
	}
	return res.RowsAffected()
}
