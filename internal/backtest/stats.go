package backtest

import (
	"math"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// finalize derives summary statistics from the walked equity curve and trade
// list. Degenerate denominators resolve to defined sentinels, never faults:
// zero volatility gives Sharpe 0, zero gross losses give profit factor +Inf
// when wins exist.
func finalize(res *models.BacktestResult, initialCapital float64) {
	final := initialCapital
	if n := len(res.EquityCurve); n > 0 {
		final = res.EquityCurve[n-1].Value
	}
	res.FinalCapital = final
	res.TotalReturn = final/initialCapital - 1

	res.Volatility = annualizedVolatility(res.EquityCurve)
	if res.Volatility != 0 {
		// Simplified Sharpe: total return per unit of annualized volatility,
		// no risk-free adjustment.
		res.SharpeRatio = res.TotalReturn / res.Volatility
	}
	res.MaxDrawdown = maxDrawdown(res.EquityCurve)
	tradeStats(res)
}

func annualizedVolatility(curve []models.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, curve[i].Value/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(returns)))
	return sd * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown returns the largest peak-to-trough fractional drop.
func maxDrawdown(curve []models.EquityPoint) float64 {
	var peak, worst float64
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func tradeStats(res *models.BacktestResult) {
	var grossWins, grossLosses float64
	for _, t := range res.Trades {
		if t.Side != domain.SideSell {
			continue
		}
		if t.PnL > 0 {
			res.WinCount++
			grossWins += t.PnL
			if t.PnL > res.LargestWin {
				res.LargestWin = t.PnL
			}
		} else if t.PnL < 0 {
			res.LossCount++
			grossLosses += -t.PnL
			if -t.PnL > res.LargestLoss {
				res.LargestLoss = -t.PnL
			}
		}
	}

	closed := res.WinCount + res.LossCount
	if closed > 0 {
		res.WinRate = float64(res.WinCount) / float64(closed)
	}
	if res.WinCount > 0 {
		res.AvgWin = grossWins / float64(res.WinCount)
	}
	if res.LossCount > 0 {
		res.AvgLoss = grossLosses / float64(res.LossCount)
	}

	switch {
	case grossLosses > 0:
		res.ProfitFactor = grossWins / grossLosses
	case grossWins > 0:
		res.ProfitFactor = math.Inf(1)
	default:
		res.ProfitFactor = 0
	}
}
