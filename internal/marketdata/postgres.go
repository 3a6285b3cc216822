package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// Store reads daily bars from Postgres.
type Store struct{ DB *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// History returns the daily bars for [start, end] in chronological order.
// A valid query matching nothing yields ErrNoDataInRange.
func (s *Store) History(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE symbol = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s %s..%s", ErrNoDataInRange, symbol,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return out, nil
}

// CurrentPrice returns the latest stored close for the symbol.
func (s *Store) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var price float64
	err := s.DB.QueryRow(ctx,
		`SELECT close FROM bars WHERE symbol = $1 ORDER BY date DESC LIMIT 1`, symbol).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: no quotes for %s", ErrUnavailable, symbol)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return price, nil
}
