// Package backtest replays historical daily bars against a strategy's signal
// sequence and reports performance statistics.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/marketdata"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
	"github.com/img0j0/tradewise-ai-sub003/internal/strategy"
)

// ErrInvalidStrategy is returned when a strategy with blocking validation
// issues is submitted for simulation.
var ErrInvalidStrategy = errors.New("strategy failed validation")

// allocationFraction is the share of cash deployed on a BUY signal; the rest
// stays as a cash buffer for costs.
const allocationFraction = 0.95

// tradingDaysPerYear annualizes daily volatility.
const tradingDaysPerYear = 252

// CostModel is the simulated execution cost structure. MarginRate is carried
// for parity with the dashboard's model but unused until margin is simulated.
type CostModel struct {
	Commission float64
	Slippage   float64
	MarginRate float64
}

func DefaultCostModel() CostModel {
	return CostModel{Commission: 0, Slippage: 0.001, MarginRate: 0.05}
}

// DataSource is the slice of the market-data collaborator the simulator
// needs. Bars are fetched once, before the walk starts.
type DataSource interface {
	History(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)
}

// Engine runs backtests against a data source.
type Engine struct {
	data   DataSource
	costs  CostModel
	logger *zap.Logger
}

func NewEngine(data DataSource, costs CostModel, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{data: data, costs: costs, logger: logger}
}

// Run simulates the strategy over [start, end]. A cancelled context aborts
// between bars and returns the partial result with Truncated set; the equity
// curve then covers exactly the bars walked.
func (e *Engine) Run(ctx context.Context, symbol string, strat *models.Strategy, start, end time.Time, initialCapital float64) (*models.BacktestResult, error) {
	if strat == nil || !strat.Validation.Valid {
		return nil, ErrInvalidStrategy
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive", ErrInvalidStrategy)
	}

	bars, err := e.data.History(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", marketdata.ErrNoDataInRange, symbol)
	}

	signals := strategy.GenerateSignals(bars, strat)

	res := &models.BacktestResult{
		Symbol:         symbol,
		StrategyName:   strat.Name,
		Start:          start,
		End:            end,
		InitialCapital: initialCapital,
		Trades:         make([]models.SimTrade, 0),
		EquityCurve:    make([]models.EquityPoint, 0, len(bars)),
	}

	cash := initialCapital
	shares := 0.0
	var lastBuyCost float64

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			res.Truncated = true
			e.logger.Warn("backtest truncated",
				zap.String("symbol", symbol),
				zap.Int("bars_done", i),
				zap.Int("bars_total", len(bars)),
			)
			break
		}

		switch signals[i] {
		case domain.SignalBuy:
			if shares == 0 {
				execPrice := bar.Close * (1 + e.costs.Slippage)
				qty := math.Floor(cash * allocationFraction / execPrice)
				if qty > 0 {
					cost := qty*execPrice + e.costs.Commission
					cash -= cost
					shares = qty
					lastBuyCost = cost
					res.Trades = append(res.Trades, models.SimTrade{
						Date:     bar.Date,
						Side:     domain.SideBuy,
						Price:    execPrice,
						Quantity: qty,
						Cost:     cost,
					})
				}
			}
		case domain.SignalSell:
			if shares > 0 {
				execPrice := bar.Close * (1 - e.costs.Slippage)
				proceeds := shares*execPrice - e.costs.Commission
				cash += proceeds
				res.Trades = append(res.Trades, models.SimTrade{
					Date:     bar.Date,
					Side:     domain.SideSell,
					Price:    execPrice,
					Quantity: shares,
					Proceeds: proceeds,
					PnL:      proceeds - lastBuyCost,
				})
				shares = 0
			}
		}

		equity := cash + shares*bar.Close
		res.EquityCurve = append(res.EquityCurve, models.EquityPoint{
			Date:   bar.Date,
			Value:  equity,
			Return: equity/initialCapital - 1,
		})
	}

	finalize(res, initialCapital)
	e.logger.Info("backtest complete",
		zap.String("symbol", symbol),
		zap.String("strategy", strat.Name),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("total_return", res.TotalReturn),
		zap.Bool("truncated", res.Truncated),
	)
	return res, nil
}
