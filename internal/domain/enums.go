package domain

import "strings"

// OrderKind is the closed set of supported order types.
type OrderKind string

const (
	KindMarket       OrderKind = "MARKET"
	KindLimit        OrderKind = "LIMIT"
	KindStopLoss     OrderKind = "STOP_LOSS"
	KindTakeProfit   OrderKind = "TAKE_PROFIT"
	KindTrailingStop OrderKind = "TRAILING_STOP"
	KindBracket      OrderKind = "BRACKET"
	KindOCO          OrderKind = "OCO"
)

func (k OrderKind) String() string { return string(k) }

func (k OrderKind) Valid() bool {
	switch k {
	case KindMarket, KindLimit, KindStopLoss, KindTakeProfit, KindTrailingStop, KindBracket, KindOCO:
		return true
	default:
		return false
	}
}

func ParseOrderKind(s string) (OrderKind, bool) {
	k := OrderKind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Side is the direction of an order: BUY or SELL.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) String() string { return string(s) }
func (s Side) Valid() bool    { return s == SideBuy || s == SideSell }

// Opposite returns the other side; bracket child legs sit opposite their entry.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func ParseSide(s string) (Side, bool) {
	v := Side(strings.ToUpper(strings.TrimSpace(s)))
	return v, v.Valid()
}

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusActive    OrderStatus = "ACTIVE"
	StatusFilled    OrderStatus = "FILLED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusExpired   OrderStatus = "EXPIRED"
)

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusFilled, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status permits no further mutation.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled || s == StatusExpired
}

// TimeInForce controls how long an order stays working.
type TimeInForce string

const (
	TIFGoodTillCancelled TimeInForce = "GTC"
	TIFDay               TimeInForce = "DAY"
	TIFImmediateOrCancel TimeInForce = "IOC"
)

func (t TimeInForce) Valid() bool {
	return t == TIFGoodTillCancelled || t == TIFDay || t == TIFImmediateOrCancel
}

// Signal is a backtest signal emitted per bar.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// RuleAction is what a strategy rule does when its trigger holds.
type RuleAction string

const (
	ActionBuy      RuleAction = "BUY"
	ActionSell     RuleAction = "SELL"
	ActionStopLoss RuleAction = "STOP_LOSS"
)

func (a RuleAction) Valid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionStopLoss
}

func ParseRuleAction(s string) (RuleAction, bool) {
	a := RuleAction(strings.ToUpper(strings.TrimSpace(s)))
	return a, a.Valid()
}

// ConditionOp is a comparison operator for custom order conditions.
type ConditionOp string

const (
	OpGTE ConditionOp = ">="
	OpLTE ConditionOp = "<="
	OpEQ  ConditionOp = "=="
	OpNEQ ConditionOp = "!="
	OpLT  ConditionOp = "<"
	OpGT  ConditionOp = ">"
)

func (o ConditionOp) Valid() bool {
	switch o {
	case OpGTE, OpLTE, OpEQ, OpNEQ, OpLT, OpGT:
		return true
	default:
		return false
	}
}

// SizingMethod selects a position-sizing formula.
type SizingMethod string

const (
	SizingKelly      SizingMethod = "kelly"
	SizingRisk       SizingMethod = "risk"
	SizingVolatility SizingMethod = "volatility"
)

func ParseSizingMethod(s string) (SizingMethod, bool) {
	switch m := SizingMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case SizingKelly, SizingRisk, SizingVolatility:
		return m, true
	default:
		return "", false
	}
}
