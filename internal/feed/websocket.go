// Package feed streams live price ticks from an upstream websocket into the
// trigger engine. It is the alternative to the Kafka consumer for
// deployments without a broker in front of the quote source.
package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/marketdata"
	"github.com/img0j0/tradewise-ai-sub003/internal/models"
	"github.com/img0j0/tradewise-ai-sub003/internal/orders"
)

// Client maintains one websocket connection with read/write pumps. A single
// read loop applies ticks, preserving per-symbol arrival order.
type Client struct {
	URL     string
	Symbols []string

	Registry *orders.Registry
	Quotes   *marketdata.Service
	Logger   *zap.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration

	sendChan chan []byte
}

func NewClient(url string, symbols []string, registry *orders.Registry, quotes *marketdata.Service, logger *zap.Logger) *Client {
	return &Client{
		URL:          url,
		Symbols:      symbols,
		Registry:     registry,
		Quotes:       quotes,
		Logger:       logger,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		PingInterval: 20 * time.Second,
		sendChan:     make(chan []byte, 256),
	}
}

type subscribeMsg struct {
	Method  string   `json:"method"`
	Symbols []string `json:"symbols"`
	ID      int64    `json:"id"`
}

// Run dials, subscribes, and pumps until the context ends or the connection
// drops; the caller owns reconnection policy.
func (c *Client) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Logger.Info("feed connected", zap.String("url", c.URL))

	sub, err := json.Marshal(subscribeMsg{Method: "SUBSCRIBE", Symbols: c.Symbols, ID: time.Now().Unix()})
	if err != nil {
		return err
	}
	c.sendChan <- sub

	go c.writePump(ctx, conn)
	return c.readLoop(ctx, conn)
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.sendChan:
			conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Logger.Warn("feed write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Logger.Warn("feed ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	})
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		tick, ok := ParseTick(raw)
		if !ok {
			continue
		}
		c.Quotes.UpdateQuote(tick)
		c.Registry.ProcessMarketUpdate(tick.Symbol, tick.Price)
	}
}

// ParseTick decodes an upstream tick frame. Frames without a symbol and a
// positive price (subscription acks, heartbeats) are ignored.
func ParseTick(raw []byte) (models.Tick, bool) {
	var t models.Tick
	if err := json.Unmarshal(raw, &t); err != nil {
		return models.Tick{}, false
	}
	if t.Symbol == "" || t.Price <= 0 {
		return models.Tick{}, false
	}
	if t.TS.IsZero() {
		t.TS = time.Now().UTC()
	}
	return t, true
}
