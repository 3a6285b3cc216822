// Package sizing provides stateless position-sizing formulas.
//
// Every function tolerates degenerate inputs by returning 0 rather than an
// error; callers never need to guard division by zero themselves.
package sizing

import "math"

// KellyCap bounds the Kelly fraction; full Kelly is too aggressive for retail
// accounts.
const KellyCap = 0.25

// DefaultTargetVolatility is the annualized volatility a position is scaled to
// when the caller does not supply one.
const DefaultTargetVolatility = 0.02

// KellyCriterion returns the fraction of capital to risk given a win rate and
// the average win/loss magnitudes. The result is clamped to [0, KellyCap].
func KellyCriterion(winRate, avgWin, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 0
	}
	b := avgWin / avgLoss
	if b == 0 {
		return 0
	}
	f := (b*winRate - (1 - winRate)) / b
	if f < 0 {
		return 0
	}
	return math.Min(f, KellyCap)
}

// RiskBasedSize returns the whole number of shares such that losing the
// distance from entry to stop risks riskPct percent of the balance.
func RiskBasedSize(balance, riskPct, entry, stop float64) int {
	if entry <= 0 || stop <= 0 || entry == stop {
		return 0
	}
	riskAmount := balance * riskPct / 100
	perShare := math.Abs(entry - stop)
	return int(math.Floor(riskAmount / perShare))
}

// VolatilitySize returns the capital to deploy so the position's volatility
// contribution matches targetVol. Pass targetVol <= 0 to use the default.
func VolatilitySize(balance, volatility, targetVol float64) float64 {
	if volatility == 0 {
		return 0
	}
	if targetVol <= 0 {
		targetVol = DefaultTargetVolatility
	}
	return balance * (targetVol / volatility)
}
