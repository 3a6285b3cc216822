package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// ErrInvalidOrderParams is returned when kind-specific parameters are missing
// or contradictory.
var ErrInvalidOrderParams = errors.New("invalid order params")

// Params is the kind-specific parameter variant for order creation. Each kind
// gets its own struct so missing or contradictory fields are caught at
// construction, not at trigger time.
type Params interface {
	Kind() domain.OrderKind
	validate() error
}

// MarketParams creates an order that executes on the next tick.
type MarketParams struct{}

func (MarketParams) Kind() domain.OrderKind { return domain.KindMarket }
func (MarketParams) validate() error        { return nil }

// LimitParams creates an order that executes at LimitPrice or better.
type LimitParams struct {
	LimitPrice float64
}

func (LimitParams) Kind() domain.OrderKind { return domain.KindLimit }

func (p LimitParams) validate() error {
	if p.LimitPrice <= 0 {
		return fmt.Errorf("%w: limit order needs a positive limit price", ErrInvalidOrderParams)
	}
	return nil
}

// StopLossParams creates a protective stop at StopPrice.
type StopLossParams struct {
	StopPrice float64
}

func (StopLossParams) Kind() domain.OrderKind { return domain.KindStopLoss }

func (p StopLossParams) validate() error {
	if p.StopPrice <= 0 {
		return fmt.Errorf("%w: stop loss needs a positive stop price", ErrInvalidOrderParams)
	}
	return nil
}

// TakeProfitParams creates a profit target at LimitPrice.
type TakeProfitParams struct {
	LimitPrice float64
}

func (TakeProfitParams) Kind() domain.OrderKind { return domain.KindTakeProfit }

func (p TakeProfitParams) validate() error {
	if p.LimitPrice <= 0 {
		return fmt.Errorf("%w: take profit needs a positive limit price", ErrInvalidOrderParams)
	}
	return nil
}

// TrailingStopParams creates a trailing stop carrying exactly one of an
// absolute trailing amount or a trailing percentage (0 < pct < 1). The stop
// price stays unset until the first tick initializes it.
type TrailingStopParams struct {
	TrailingAmount  float64
	TrailingPercent float64
}

func (TrailingStopParams) Kind() domain.OrderKind { return domain.KindTrailingStop }

func (p TrailingStopParams) validate() error {
	hasAmount := p.TrailingAmount > 0
	hasPercent := p.TrailingPercent > 0
	if hasAmount == hasPercent {
		return fmt.Errorf("%w: trailing stop needs exactly one of trailing amount or trailing percent", ErrInvalidOrderParams)
	}
	if hasPercent && p.TrailingPercent >= 1 {
		return fmt.Errorf("%w: trailing percent must be below 1", ErrInvalidOrderParams)
	}
	return nil
}

// CreateSpec is the full request for a single order.
type CreateSpec struct {
	Symbol      string
	Quantity    float64
	Side        domain.Side
	UserID      string
	Params      Params
	TimeInForce domain.TimeInForce
	ExpiresAt   *time.Time
	OCOGroup    string
	Conditions  []models.Condition
}

func (s CreateSpec) validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrderParams)
	}
	if s.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrderParams)
	}
	if !s.Side.Valid() {
		return fmt.Errorf("%w: side must be BUY or SELL", ErrInvalidOrderParams)
	}
	if s.Params == nil {
		return fmt.Errorf("%w: missing kind params", ErrInvalidOrderParams)
	}
	if s.TimeInForce != "" && !s.TimeInForce.Valid() {
		return fmt.Errorf("%w: unknown time in force %q", ErrInvalidOrderParams, s.TimeInForce)
	}
	for _, c := range s.Conditions {
		if !c.Op.Valid() {
			return fmt.Errorf("%w: unknown condition operator %q", ErrInvalidOrderParams, c.Op)
		}
	}
	return s.Params.validate()
}

// BracketSpec is the request for a bracket: a limit entry plus an
// opposite-side stop-loss and take-profit pair of child orders.
type BracketSpec struct {
	Symbol      string
	Quantity    float64
	Side        domain.Side
	UserID      string
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	TimeInForce domain.TimeInForce
	ExpiresAt   *time.Time
}

func (s BracketSpec) validate() error {
	if s.Symbol == "" || s.Quantity <= 0 || !s.Side.Valid() {
		return fmt.Errorf("%w: bracket needs symbol, positive quantity and a valid side", ErrInvalidOrderParams)
	}
	if s.EntryPrice <= 0 || s.StopPrice <= 0 || s.TargetPrice <= 0 {
		return fmt.Errorf("%w: bracket prices must be positive", ErrInvalidOrderParams)
	}
	if s.Side == domain.SideBuy && !(s.StopPrice < s.EntryPrice && s.EntryPrice < s.TargetPrice) {
		return fmt.Errorf("%w: long bracket needs stop < entry < target", ErrInvalidOrderParams)
	}
	if s.Side == domain.SideSell && !(s.TargetPrice < s.EntryPrice && s.EntryPrice < s.StopPrice) {
		return fmt.Errorf("%w: short bracket needs target < entry < stop", ErrInvalidOrderParams)
	}
	return nil
}
