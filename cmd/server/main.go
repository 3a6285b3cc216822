package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/backtest"
	"github.com/img0j0/tradewise-ai-sub003/internal/cache"
	"github.com/img0j0/tradewise-ai-sub003/internal/config"
	"github.com/img0j0/tradewise-ai-sub003/internal/feed"
	httpserver "github.com/img0j0/tradewise-ai-sub003/internal/http"
	kafkaconsumer "github.com/img0j0/tradewise-ai-sub003/internal/kafka"
	"github.com/img0j0/tradewise-ai-sub003/internal/marketdata"
	"github.com/img0j0/tradewise-ai-sub003/internal/orders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbpool, err := marketdata.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer dbpool.Close()

	bars, err := cache.New(1<<20 /* ~1M bars */, cfg.BarsCacheTTL)
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}
	market := marketdata.NewService(marketdata.NewStore(dbpool), bars, logger)

	registry := orders.NewRegistry(logger)
	go registry.RunExpirySweeper(ctx, cfg.ExpirySweep)
	go runEvictionLoop(ctx, registry, cfg.TerminalRetention)

	bt := backtest.NewEngine(market, backtest.DefaultCostModel(), logger)

	switch cfg.FeedMode {
	case "websocket":
		ws := feed.NewClient(cfg.FeedURL, cfg.FeedSymbols, registry, market, logger)
		go func() {
			if err := ws.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("feed", zap.Error(err))
				cancel()
			}
		}()
	default:
		cons := kafkaconsumer.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, registry, market, logger)
		go func() {
			if err := cons.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("consumer", zap.Error(err))
				cancel()
			}
		}()
	}

	s := httpserver.NewServer(registry, market, bt, logger, cfg.CORSOrigin, cfg.BacktestTimeout)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: s.R}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = server.Shutdown(ctxShut)
	logger.Info("shutdown complete")
}

// runEvictionLoop drops terminal orders past the audit retention window.
func runEvictionLoop(ctx context.Context, registry *orders.Registry, retention time.Duration) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(retention / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.EvictTerminal(retention)
		}
	}
}
