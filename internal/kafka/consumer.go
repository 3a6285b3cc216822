package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/marketdata"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
	"github.com/img0j0/tradewise-ai-sub003/internal/orders"
)

// Consumer reads price ticks and drives trigger evaluation. Messages are
// keyed by symbol at the producer, so one consumer sees a symbol's ticks in
// order; a single Run goroutine keeps them applied in order.
type Consumer struct {
	Reader   *kafka.Reader
	Registry *orders.Registry
	Quotes   *marketdata.Service
	Logger   *zap.Logger
}

func NewConsumer(brokers, topic, groupID string, registry *orders.Registry, quotes *marketdata.Service, logger *zap.Logger) *Consumer {
	return &Consumer{
		Reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  []string{brokers},
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
			MaxWait:  500 * time.Millisecond,
		}),
		Registry: registry,
		Quotes:   quotes,
		Logger:   logger,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.Reader.Close()
	for {
		m, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		var t models.Tick
		if err := json.Unmarshal(m.Value, &t); err != nil {
			c.Logger.Warn("bad tick message", zap.Error(err))
			continue
		}
		if t.Symbol == "" || t.Price <= 0 {
			c.Logger.Warn("invalid tick", zap.String("symbol", t.Symbol), zap.Float64("price", t.Price))
			continue
		}
		if t.TS.IsZero() {
			t.TS = time.Now().UTC()
		}
		c.Quotes.UpdateQuote(t)
		c.Registry.ProcessMarketUpdate(t.Symbol, t.Price)
		c.Logger.Debug("tick applied", zap.String("symbol", t.Symbol), zap.Float64("price", t.Price))
	}
}
