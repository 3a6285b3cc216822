package orders

import (
	"math"

	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// conditionTolerance is the band within which == holds and != fails.
const conditionTolerance = 0.01

// ProcessMarketUpdate applies one price tick to every ACTIVE order indexed
// under the symbol. Trailing stops ratchet before evaluation. An order that
// triggers but fails any of its custom conditions sits out this tick.
func (r *Registry) ProcessMarketUpdate(symbol string, price float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.bySymbol[symbol] {
		o, ok := r.orders[id]
		if !ok || o.Status != domain.StatusActive {
			continue
		}
		if o.Kind == domain.KindTrailingStop {
			r.ratchetTrailingStop(o, price)
		}
		if !shouldTrigger(o, price) {
			continue
		}
		if !conditionsHold(o.Conditions, price) {
			continue
		}
		r.execute(o, price)
	}
}

// ratchetTrailingStop initializes the stop on the first tick and afterwards
// moves it only in the protective direction: up for a SELL stop under a long,
// down for a BUY stop over a short.
func (r *Registry) ratchetTrailingStop(o *models.Order, price float64) {
	var candidate float64
	switch {
	case o.Side == domain.SideSell && o.TrailingAmount != nil:
		candidate = price - *o.TrailingAmount
	case o.Side == domain.SideSell && o.TrailingPercent != nil:
		candidate = price * (1 - *o.TrailingPercent)
	case o.Side == domain.SideBuy && o.TrailingAmount != nil:
		candidate = price + *o.TrailingAmount
	case o.Side == domain.SideBuy && o.TrailingPercent != nil:
		candidate = price * (1 + *o.TrailingPercent)
	default:
		return
	}

	if o.StopPrice == nil {
		o.StopPrice = &candidate
		o.UpdatedAt = r.now()
		return
	}
	if (o.Side == domain.SideSell && candidate > *o.StopPrice) ||
		(o.Side == domain.SideBuy && candidate < *o.StopPrice) {
		*o.StopPrice = candidate
		o.UpdatedAt = r.now()
	}
}

// shouldTrigger applies the per-kind trigger table against the current price.
func shouldTrigger(o *models.Order, price float64) bool {
	switch o.Kind {
	case domain.KindMarket:
		return true
	case domain.KindLimit:
		if o.LimitPrice == nil {
			return false
		}
		if o.Side == domain.SideBuy {
			return price <= *o.LimitPrice
		}
		return price >= *o.LimitPrice
	case domain.KindStopLoss, domain.KindTrailingStop:
		if o.StopPrice == nil {
			return false
		}
		if o.Side == domain.SideSell {
			return price <= *o.StopPrice
		}
		return price >= *o.StopPrice
	case domain.KindTakeProfit:
		if o.LimitPrice == nil {
			return false
		}
		if o.Side == domain.SideSell {
			return price >= *o.LimitPrice
		}
		return price <= *o.LimitPrice
	default:
		return false
	}
}

// conditionsHold checks every custom condition against the price; all must
// pass (AND semantics).
func conditionsHold(conds []models.Condition, price float64) bool {
	for _, c := range conds {
		var ok bool
		switch c.Op {
		case domain.OpGTE:
			ok = price >= c.Threshold
		case domain.OpLTE:
			ok = price <= c.Threshold
		case domain.OpEQ:
			ok = math.Abs(price-c.Threshold) < conditionTolerance
		case domain.OpNEQ:
			ok = math.Abs(price-c.Threshold) >= conditionTolerance
		case domain.OpLT:
			ok = price < c.Threshold
		case domain.OpGT:
			ok = price > c.Threshold
		}
		if !ok {
			return false
		}
	}
	return true
}

// execute fills the whole unfilled remainder at price, recomputes the
// weighted average fill price, and flips the order to FILLED. The FILLED
// transition is one-way; OCO siblings still active are cancelled. Caller
// holds the lock.
func (r *Registry) execute(o *models.Order, price float64) {
	remaining := o.Remaining()
	if remaining <= 0 {
		return
	}
	now := r.now()
	o.Fills = append(o.Fills, models.Fill{Quantity: remaining, Price: price, TS: now})
	o.FilledQuantity += remaining

	var cost, qty float64
	for _, f := range o.Fills {
		cost += f.Quantity * f.Price
		qty += f.Quantity
	}
	o.AvgFillPrice = cost / qty

	if o.FilledQuantity >= o.Quantity {
		o.Status = domain.StatusFilled
	}
	o.UpdatedAt = now

	r.logger.Info("order executed",
		zap.String("id", o.ID),
		zap.String("symbol", o.Symbol),
		zap.Float64("price", price),
		zap.Float64("quantity", remaining),
	)

	r.cancelOCOSiblings(o, "oco sibling filled")
}
