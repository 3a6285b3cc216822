package backtest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// ParamPair is one crossover candidate in the optimization grid.
type ParamPair struct {
	Short int `json:"short"`
	Long  int `json:"long"`
}

// DefaultGrid spans the common crossover configurations.
var DefaultGrid = []ParamPair{
	{5, 20}, {5, 30}, {10, 30}, {10, 50}, {20, 50}, {20, 100}, {50, 200},
}

// ErrNoCandidates is returned when no grid candidate produced a result.
var ErrNoCandidates = errors.New("optimization produced no candidates")

// Optimize runs a real backtest per grid candidate and picks the best by
// Sharpe ratio, breaking ties on total return. Candidates whose data fetch
// or run fails are skipped. A cancelled context stops the search and returns
// the best found so far.
func (e *Engine) Optimize(ctx context.Context, symbol string, strat *models.Strategy, start, end time.Time, initialCapital float64, grid []ParamPair) (*models.OptimizationResult, error) {
	if len(grid) == 0 {
		grid = DefaultGrid
	}
	began := time.Now()

	out := &models.OptimizationResult{Symbol: symbol}
	var firstErr error
	for _, p := range grid {
		if ctx.Err() != nil {
			break
		}
		if p.Short <= 0 || p.Long <= p.Short {
			continue
		}

		candidate := withPeriods(strat, p)
		res, err := e.Run(ctx, symbol, candidate, start, end, initialCapital)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			e.logger.Debug("candidate skipped",
				zap.Int("short", p.Short),
				zap.Int("long", p.Long),
				zap.Error(err),
			)
			continue
		}
		out.Evaluated++

		score := res.SharpeRatio
		better := out.BestResult == nil ||
			score > out.BestScore ||
			(score == out.BestScore && res.TotalReturn > out.BestResult.TotalReturn)
		if better {
			out.BestShort = p.Short
			out.BestLong = p.Long
			out.BestScore = score
			out.BestResult = res
		}
	}

	out.ElapsedMS = time.Since(began).Milliseconds()
	if out.BestResult == nil {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, ErrNoCandidates
	}
	e.logger.Info("optimization complete",
		zap.String("symbol", symbol),
		zap.Int("evaluated", out.Evaluated),
		zap.Int("best_short", out.BestShort),
		zap.Int("best_long", out.BestLong),
		zap.Float64("best_score", out.BestScore),
	)
	return out, nil
}

// withPeriods copies the strategy with the candidate's crossover periods.
func withPeriods(strat *models.Strategy, p ParamPair) *models.Strategy {
	cp := *strat
	cp.Params = make(map[string]float64, len(strat.Params)+2)
	for k, v := range strat.Params {
		cp.Params[k] = v
	}
	cp.Params["short_period"] = float64(p.Short)
	cp.Params["long_period"] = float64(p.Long)
	return &cp
}
