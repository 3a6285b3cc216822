// Package marketdata serves live quotes and historical daily bars. The
// trigger engine and backtester never reach the database from their hot
// loops: history is fetched fully up front and quotes come off the in-memory
// board.
package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

var (
	// ErrNoDataInRange is the business outcome for a valid query that
	// matches no bars; it is not a fault.
	ErrNoDataInRange = errors.New("no data in range")

	// ErrUnavailable covers fetch failures: backend down, unknown symbol
	// with no quotes, malformed rows.
	ErrUnavailable = errors.New("market data unavailable")
)

// IsNoData reports whether err is the empty-range business outcome.
func IsNoData(err error) bool { return errors.Is(err, ErrNoDataInRange) }

// Provider is the market-data collaborator surface the engine consumes.
type Provider interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	History(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)
}
