package models

import (
	"time"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
)

// Tick is one live price observation for a symbol.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"`
}

// Bar is one historical OHLCV bar.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Fill records a partial or full execution of an order.
type Fill struct {
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
	TS       time.Time `json:"ts"`
}

// Condition is a custom execution gate compared against the market price.
// All conditions on an order must hold for it to execute (AND semantics).
type Condition struct {
	Op        domain.ConditionOp `json:"op"`
	Threshold float64            `json:"threshold"`
}

// Order is the registry entry for a working or historical order.
//
// LimitPrice, StopPrice, TrailingAmount, TrailingPercent and ExpiresAt are
// pointers: nil means "not set for this kind". A trailing stop keeps StopPrice
// nil until the first tick initializes it.
type Order struct {
	ID             string             `json:"id"`
	Symbol         string             `json:"symbol"`
	Quantity       float64            `json:"quantity"`
	FilledQuantity float64            `json:"filled_quantity"`
	Kind           domain.OrderKind   `json:"kind"`
	Side           domain.Side        `json:"side"`
	Status         domain.OrderStatus `json:"status"`
	LimitPrice     *float64           `json:"limit_price,omitempty"`
	StopPrice      *float64           `json:"stop_price,omitempty"`

	// Trailing stops carry exactly one of these.
	TrailingAmount  *float64 `json:"trailing_amount,omitempty"`
	TrailingPercent *float64 `json:"trailing_percent,omitempty"`

	TimeInForce  domain.TimeInForce `json:"time_in_force"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
	UserID       string             `json:"user_id"`
	Fills        []Fill             `json:"fills,omitempty"`
	AvgFillPrice float64            `json:"avg_fill_price"`
	Conditions   []Condition        `json:"conditions,omitempty"`
	Notes        []string           `json:"notes,omitempty"`

	// Bracket linkage: the parent holds child ids for cancellation cascades;
	// children carry a back-reference. Children are independent registry entries.
	ParentID *string  `json:"parent_order_id,omitempty"`
	ChildIDs []string `json:"child_order_ids,omitempty"`

	// OCOGroup names the one-cancels-other group, empty when none.
	OCOGroup string `json:"oco_group,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Remaining is the unfilled quantity.
func (o *Order) Remaining() float64 { return o.Quantity - o.FilledQuantity }

// BracketOrder groups the three legs returned by a bracket creation.
type BracketOrder struct {
	Parent    *Order `json:"parent"`
	StopLeg   *Order `json:"stop_leg"`
	ProfitLeg *Order `json:"profit_leg"`
}

// Rule is one declarative strategy rule.
type Rule struct {
	Action  domain.RuleAction `json:"action"`
	Trigger string            `json:"trigger"`
}

// RiskConfig is the risk-management block of a strategy.
type RiskConfig struct {
	MaxPositionSize float64 `json:"max_position_size"`
	StopLossPct     float64 `json:"stop_loss_pct,omitempty"`
}

// Validation is the outcome of strategy validation. Issues block use of the
// strategy; warnings do not.
type Validation struct {
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Strategy is a declarative rule-based trading strategy.
type Strategy struct {
	Name       string             `json:"name"`
	Rules      []Rule             `json:"rules"`
	Risk       RiskConfig         `json:"risk"`
	Params     map[string]float64 `json:"params,omitempty"`
	Validation Validation         `json:"validation"`
}

// SimTrade is one simulated execution recorded by the backtester.
type SimTrade struct {
	Date     time.Time   `json:"date"`
	Side     domain.Side `json:"side"`
	Price    float64     `json:"price"`
	Quantity float64     `json:"quantity"`
	Cost     float64     `json:"cost,omitempty"`
	Proceeds float64     `json:"proceeds,omitempty"`
	PnL      float64     `json:"pnl,omitempty"`
}

// EquityPoint is one point of the equity curve, appended every bar.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Return float64   `json:"return"`
}

// BacktestResult is the full outcome of a simulation run.
//
// ProfitFactor is +Inf when there are winning trades and no losing ones.
// Truncated is set when the run was cancelled mid-walk; the equity curve then
// covers only the bars processed before the abort.
type BacktestResult struct {
	Symbol         string        `json:"symbol"`
	StrategyName   string        `json:"strategy_name"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	InitialCapital float64       `json:"initial_capital"`
	FinalCapital   float64       `json:"final_capital"`
	TotalReturn    float64       `json:"total_return"`
	Volatility     float64       `json:"volatility"`
	SharpeRatio    float64       `json:"sharpe_ratio"`
	MaxDrawdown    float64       `json:"max_drawdown"`
	Trades         []SimTrade    `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	WinCount       int           `json:"win_count"`
	LossCount      int           `json:"loss_count"`
	WinRate        float64       `json:"win_rate"`
	AvgWin         float64       `json:"avg_win"`
	AvgLoss        float64       `json:"avg_loss"`
	LargestWin     float64       `json:"largest_win"`
	LargestLoss    float64       `json:"largest_loss"`
	ProfitFactor   float64       `json:"profit_factor"`
	Truncated      bool          `json:"truncated,omitempty"`
}

// OptimizationResult reports the best parameter pair found by a grid search.
type OptimizationResult struct {
	Symbol     string          `json:"symbol"`
	BestShort  int             `json:"best_short_period"`
	BestLong   int             `json:"best_long_period"`
	BestScore  float64         `json:"best_score"`
	BestResult *BacktestResult `json:"best_result,omitempty"`
	Evaluated  int             `json:"evaluated"`
	ElapsedMS  int64           `json:"elapsed_ms"`
}
