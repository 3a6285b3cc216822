package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/backtest"
	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
	"github.com/img0j0/tradewise-ai-sub003/internal/marketdata"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
	"github.com/img0j0/tradewise-ai-sub003/internal/orders"
	"github.com/img0j0/tradewise-ai-sub003/internal/sizing"
	"github.com/img0j0/tradewise-ai-sub003/internal/strategy"
)

type Server struct {
	R        *gin.Engine
	Registry *orders.Registry
	Market   *marketdata.Service
	Backtest *backtest.Engine
	Logger   *zap.Logger

	// BacktestTimeout bounds a single run; longer runs come back truncated.
	BacktestTimeout time.Duration
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router, services, and middleware.
func NewServer(registry *orders.Registry, market *marketdata.Service, bt *backtest.Engine, logger *zap.Logger, corsOrigin string, backtestTimeout time.Duration) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		logger.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	s := &Server{
		R:               g,
		Registry:        registry,
		Market:          market,
		Backtest:        bt,
		Logger:          logger,
		BacktestTimeout: backtestTimeout,
	}

	g.GET("/health", func(cn *gin.Context) { cn.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.POST("/api/orders", s.createOrder)
	g.POST("/api/orders/bracket", s.createBracket)
	g.POST("/api/orders/trailing-stop", s.createTrailingStop)
	g.DELETE("/api/orders/:id", s.cancelOrder)
	g.GET("/api/orders", s.listOrders)
	g.POST("/api/ticks", s.applyTick)
	g.GET("/api/quote/:symbol", s.quote)
	g.POST("/api/position-size", s.positionSize)
	g.POST("/api/backtest", s.runBacktest)
	g.POST("/api/optimize", s.runOptimize)

	return s
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
}

// --- Order handlers ---

type createOrderRequest struct {
	Symbol          string             `json:"symbol"`
	Quantity        float64            `json:"quantity"`
	Kind            string             `json:"kind"`
	Side            string             `json:"side"`
	UserID          string             `json:"user_id"`
	LimitPrice      float64            `json:"limit_price"`
	StopPrice       float64            `json:"stop_price"`
	TrailingAmount  float64            `json:"trailing_amount"`
	TrailingPercent float64            `json:"trailing_percent"`
	TimeInForce     string             `json:"time_in_force"`
	ExpiresAt       *time.Time         `json:"expires_at"`
	OCOGroup        string             `json:"oco_group"`
	Conditions      []models.Condition `json:"conditions"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid json: "+err.Error())
		return
	}
	kind, ok := domain.ParseOrderKind(req.Kind)
	if !ok {
		s.badRequest(c, "unknown order kind")
		return
	}
	side, ok := domain.ParseSide(req.Side)
	if !ok {
		s.badRequest(c, "side must be BUY or SELL")
		return
	}

	var params orders.Params
	switch kind {
	case domain.KindMarket:
		params = orders.MarketParams{}
	case domain.KindLimit:
		params = orders.LimitParams{LimitPrice: req.LimitPrice}
	case domain.KindStopLoss:
		params = orders.StopLossParams{StopPrice: req.StopPrice}
	case domain.KindTakeProfit:
		params = orders.TakeProfitParams{LimitPrice: req.LimitPrice}
	case domain.KindTrailingStop:
		params = orders.TrailingStopParams{TrailingAmount: req.TrailingAmount, TrailingPercent: req.TrailingPercent}
	default:
		s.badRequest(c, "use the bracket endpoint for bracket orders")
		return
	}

	o, err := s.Registry.Create(orders.CreateSpec{
		Symbol:      req.Symbol,
		Quantity:    req.Quantity,
		Side:        side,
		UserID:      req.UserID,
		Params:      params,
		TimeInForce: domain.TimeInForce(req.TimeInForce),
		ExpiresAt:   req.ExpiresAt,
		OCOGroup:    req.OCOGroup,
		Conditions:  req.Conditions,
	})
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, o)
}

type bracketRequest struct {
	Symbol      string     `json:"symbol"`
	Quantity    float64    `json:"quantity"`
	Side        string     `json:"side"`
	UserID      string     `json:"user_id"`
	EntryPrice  float64    `json:"entry_price"`
	StopPrice   float64    `json:"stop_price"`
	TargetPrice float64    `json:"target_price"`
	TimeInForce string     `json:"time_in_force"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (s *Server) createBracket(c *gin.Context) {
	var req bracketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid json: "+err.Error())
		return
	}
	side, ok := domain.ParseSide(req.Side)
	if !ok {
		s.badRequest(c, "side must be BUY or SELL")
		return
	}
	br, err := s.Registry.CreateBracket(orders.BracketSpec{
		Symbol:      req.Symbol,
		Quantity:    req.Quantity,
		Side:        side,
		UserID:      req.UserID,
		EntryPrice:  req.EntryPrice,
		StopPrice:   req.StopPrice,
		TargetPrice: req.TargetPrice,
		TimeInForce: domain.TimeInForce(req.TimeInForce),
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, br)
}

type trailingStopRequest struct {
	Symbol          string  `json:"symbol"`
	Quantity        float64 `json:"quantity"`
	Side            string  `json:"side"`
	UserID          string  `json:"user_id"`
	TrailingAmount  float64 `json:"trailing_amount"`
	TrailingPercent float64 `json:"trailing_percent"`
}

func (s *Server) createTrailingStop(c *gin.Context) {
	var req trailingStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid json: "+err.Error())
		return
	}
	side, ok := domain.ParseSide(req.Side)
	if !ok {
		s.badRequest(c, "side must be BUY or SELL")
		return
	}
	o, err := s.Registry.CreateTrailingStop(req.Symbol, req.Quantity, side, req.UserID, req.TrailingAmount, req.TrailingPercent)
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) cancelOrder(c *gin.Context) {
	id := c.Param("id")
	reason := c.Query("reason")
	if reason == "" {
		reason = "user request"
	}
	if !s.Registry.Cancel(id, reason) {
		c.JSON(http.StatusNotFound, apiError{Code: "not_cancellable", Message: "unknown id or terminal order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": id})
}

func (s *Server) listOrders(c *gin.Context) {
	if user := c.Query("user"); user != "" {
		c.JSON(http.StatusOK, s.Registry.OrdersByUser(user))
		return
	}
	c.JSON(http.StatusOK, s.Registry.ActiveOrders(c.Query("symbol")))
}

// --- Market handlers ---

func (s *Server) applyTick(c *gin.Context) {
	var t models.Tick
	if err := c.ShouldBindJSON(&t); err != nil {
		s.badRequest(c, "invalid json: "+err.Error())
		return
	}
	if t.Symbol == "" || t.Price <= 0 {
		s.badRequest(c, "tick needs a symbol and a positive price")
		return
	}
	if t.TS.IsZero() {
		t.TS = time.Now().UTC()
	}
	s.Market.UpdateQuote(t)
	s.Registry.ProcessMarketUpdate(t.Symbol, t.Price)
	c.JSON(http.StatusOK, gin.H{"applied": t.Symbol})
}

func (s *Server) quote(c *gin.Context) {
	symbol := c.Param("symbol")
	price, err := s.Market.CurrentPrice(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, apiError{Code: "no_quote", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": price})
}

// --- Sizing handler ---

type positionSizeRequest struct {
	Method           string  `json:"method"`
	Balance          float64 `json:"balance"`
	WinRate          float64 `json:"win_rate"`
	AvgWin           float64 `json:"avg_win"`
	AvgLoss          float64 `json:"avg_loss"`
	RiskPct          float64 `json:"risk_pct"`
	EntryPrice       float64 `json:"entry_price"`
	StopPrice        float64 `json:"stop_price"`
	Volatility       float64 `json:"volatility"`
	TargetVolatility float64 `json:"target_volatility"`
}

func (s *Server) positionSize(c *gin.Context) {
	var req positionSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid json: "+err.Error())
		return
	}
	method, ok := domain.ParseSizingMethod(req.Method)
	if !ok {
		s.badRequest(c, "method must be kelly, risk or volatility")
		return
	}
	switch method {
	case domain.SizingKelly:
		f := sizing.KellyCriterion(req.WinRate, req.AvgWin, req.AvgLoss)
		c.JSON(http.StatusOK, gin.H{"method": method, "fraction": f})
	case domain.SizingRisk:
		shares := sizing.RiskBasedSize(req.Balance, req.RiskPct, req.EntryPrice, req.StopPrice)
		c.JSON(http.StatusOK, gin.H{"method": method, "shares": shares})
	case domain.SizingVolatility:
		capital := sizing.VolatilitySize(req.Balance, req.Volatility, req.TargetVolatility)
		c.JSON(http.StatusOK, gin.H{"method": method, "capital": capital})
	}
}

// --- Backtest handlers ---

type backtestRequest struct {
	Symbol         string          `json:"symbol"`
	Strategy       strategy.Config `json:"strategy"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	InitialCapital float64         `json:"initial_capital"`
}

func (s *Server) runBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid json: "+err.Error())
		return
	}
	strat := strategy.New(req.Strategy)
	if !strat.Validation.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"validation": strat.Validation})
		return
	}

	ctx, cancel := s.runContext(c)
	defer cancel()
	res, err := s.Backtest.Run(ctx, req.Symbol, strat, req.Start, req.End, req.InitialCapital)
	if err != nil {
		s.backtestError(c, "backtest", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type optimizeRequest struct {
	backtestRequest
	Grid []backtest.ParamPair `json:"grid"`
}

func (s *Server) runOptimize(c *gin.Context) {
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid json: "+err.Error())
		return
	}
	strat := strategy.New(req.Strategy)
	if !strat.Validation.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"validation": strat.Validation})
		return
	}

	ctx, cancel := s.runContext(c)
	defer cancel()
	out, err := s.Backtest.Optimize(ctx, req.Symbol, strat, req.Start, req.End, req.InitialCapital, req.Grid)
	if err != nil {
		s.backtestError(c, "optimize", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// runContext bounds a simulation by the configured timeout; the engine
// returns a truncated partial result when the deadline lands mid-walk.
func (s *Server) runContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.BacktestTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.BacktestTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *Server) backtestError(c *gin.Context, where string, err error) {
	switch {
	case marketdata.IsNoData(err):
		// A valid query with no bars is a business outcome, not a fault.
		c.JSON(http.StatusOK, gin.H{"code": "no_data_in_range", "message": err.Error()})
	case errors.Is(err, backtest.ErrInvalidStrategy):
		s.badRequest(c, err.Error())
	default:
		s.internalError(c, where, err)
	}
}
