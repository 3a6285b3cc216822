package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/cache"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// Service is the Provider the rest of the system talks to: a quote board fed
// by the live tick streams, a TTL cache over history queries, and the store
// behind both.
type Service struct {
	store  Provider
	bars   *cache.Cache
	quotes *cache.MapCache[string, models.Tick]
	logger *zap.Logger
}

func NewService(store Provider, bars *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		bars:   bars,
		quotes: cache.NewMapCache[string, models.Tick](),
		logger: logger,
	}
}

// UpdateQuote records a live tick on the quote board.
func (s *Service) UpdateQuote(t models.Tick) { s.quotes.Set(t.Symbol, t) }

// LastQuote returns the most recent live tick seen for the symbol.
func (s *Service) LastQuote(symbol string) (models.Tick, bool) { return s.quotes.Get(symbol) }

// CurrentPrice prefers the live quote board and falls back to the store's
// latest close.
func (s *Service) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if t, ok := s.quotes.Get(symbol); ok {
		return t.Price, nil
	}
	return s.store.CurrentPrice(ctx, symbol)
}

// History serves bars through the TTL cache. Empty-range outcomes are not
// cached; a symbol may gain data within the TTL window.
func (s *Service) History(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	key := cache.Bars(symbol, start, end)
	if s.bars != nil {
		if bars, ok := s.bars.GetBars(key); ok {
			return bars, nil
		}
	}
	bars, err := s.store.History(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if s.bars != nil {
		s.bars.SetBars(key, bars)
	}
	s.logger.Debug("history fetched",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
	)
	return bars, nil
}
