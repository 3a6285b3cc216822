package strategy

import (
	"math"
	"strconv"
	"strings"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/indicator"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// Default crossover periods when the strategy supplies none.
const (
	DefaultShortPeriod = 10
	DefaultLongPeriod  = 30
)

// Periods returns the strategy's SMA crossover periods, falling back to the
// 10/30 defaults.
func Periods(s *models.Strategy) (short, long int) {
	short, long = DefaultShortPeriod, DefaultLongPeriod
	if s == nil || s.Params == nil {
		return short, long
	}
	if v, ok := s.Params["short_period"]; ok && v >= 1 {
		short = int(v)
	}
	if v, ok := s.Params["long_period"]; ok && v >= 1 {
		long = int(v)
	}
	return short, long
}

// GenerateSignals converts a strategy into one signal per bar. Rules with
// parseable indicator triggers (e.g. "sma_10 > sma_30", "rsi_14 < 30") are
// evaluated against the bar series; when no rule parses, the strategy falls
// back to the SMA crossover on its configured periods. Consecutive repeats
// collapse to HOLD so only transitions remain actionable.
func GenerateSignals(bars []models.Bar, s *models.Strategy) []domain.Signal {
	raw := rawSignals(bars, s)
	return collapseRepeats(raw)
}

func rawSignals(bars []models.Bar, s *models.Strategy) []domain.Signal {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	var buyRules, sellRules []compiledRule
	if s != nil {
		for _, r := range s.Rules {
			cr, ok := compileRule(r, closes)
			if !ok {
				continue
			}
			if r.Action == domain.ActionBuy {
				buyRules = append(buyRules, cr)
			} else {
				sellRules = append(sellRules, cr)
			}
		}
	}

	out := make([]domain.Signal, len(bars))
	if len(buyRules) == 0 && len(sellRules) == 0 {
		// Reference behavior: short/long SMA crossover.
		short, long := Periods(s)
		shortSMA := indicator.SMA(closes, short)
		longSMA := indicator.SMA(closes, long)
		for i := range bars {
			switch {
			case math.IsNaN(shortSMA[i]) || math.IsNaN(longSMA[i]):
				out[i] = domain.SignalHold
			case shortSMA[i] > longSMA[i]:
				out[i] = domain.SignalBuy
			case shortSMA[i] < longSMA[i]:
				out[i] = domain.SignalSell
			default:
				out[i] = domain.SignalHold
			}
		}
		return out
	}

	for i := range bars {
		sell := anyHolds(sellRules, i)
		buy := anyHolds(buyRules, i)
		switch {
		case sell:
			out[i] = domain.SignalSell
		case buy:
			out[i] = domain.SignalBuy
		default:
			out[i] = domain.SignalHold
		}
	}
	return out
}

// collapseRepeats keeps only signal transitions: a BUY following a BUY
// becomes HOLD, and likewise for SELL.
func collapseRepeats(raw []domain.Signal) []domain.Signal {
	out := make([]domain.Signal, len(raw))
	last := domain.SignalHold
	for i, sig := range raw {
		if sig == domain.SignalHold || sig == last {
			out[i] = domain.SignalHold
			continue
		}
		out[i] = sig
		last = sig
	}
	return out
}

// compiledRule is a trigger evaluated per bar index.
type compiledRule struct {
	left  []float64
	op    string
	right []float64
}

func anyHolds(rules []compiledRule, i int) bool {
	for _, r := range rules {
		l, rt := r.left[i], r.right[i]
		if math.IsNaN(l) || math.IsNaN(rt) {
			continue
		}
		var ok bool
		switch r.op {
		case ">":
			ok = l > rt
		case "<":
			ok = l < rt
		case ">=":
			ok = l >= rt
		case "<=":
			ok = l <= rt
		}
		if ok {
			return true
		}
	}
	return false
}

// compileRule parses triggers of the form "<term> <op> <term>" where a term
// is an indicator reference (sma_N, ema_N, rsi_N) or a numeric constant.
func compileRule(r models.Rule, closes []float64) (compiledRule, bool) {
	fields := strings.Fields(r.Trigger)
	if len(fields) != 3 {
		return compiledRule{}, false
	}
	op := fields[1]
	switch op {
	case ">", "<", ">=", "<=":
	default:
		return compiledRule{}, false
	}
	left, ok := compileTerm(fields[0], closes)
	if !ok {
		return compiledRule{}, false
	}
	right, ok := compileTerm(fields[2], closes)
	if !ok {
		return compiledRule{}, false
	}
	return compiledRule{left: left, op: op, right: right}, true
}

func compileTerm(term string, closes []float64) ([]float64, bool) {
	if v, err := strconv.ParseFloat(term, 64); err == nil {
		out := make([]float64, len(closes))
		for i := range out {
			out[i] = v
		}
		return out, true
	}

	name, periodStr, ok := strings.Cut(strings.ToLower(term), "_")
	if !ok {
		if strings.EqualFold(term, "close") {
			return closes, true
		}
		return nil, false
	}
	period, err := strconv.Atoi(periodStr)
	if err != nil || period < 1 {
		return nil, false
	}
	switch name {
	case "sma":
		return indicator.SMA(closes, period), true
	case "ema":
		return indicator.EMA(closes, period), true
	case "rsi":
		return indicator.RSI(closes, period), true
	default:
		return nil, false
	}
}
