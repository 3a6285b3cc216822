package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

func runProducerLoop(ctx context.Context, cfg Config, w *kafka.Writer) {
	rate := cfg.Rate
	if rate <= 0 {
		rate = 1
	}
	period := time.Second / time.Duration(rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				log.Println("tickgen: TTL reached; exiting")
			} else {
				log.Println("tickgen: shutting down (signal)")
			}
			return
		case <-ticker.C:
			// jitter
			time.Sleep(time.Duration(rng.Intn(150)) * time.Millisecond)

			t := genTick()
			b, err := json.Marshal(t)
			if err != nil {
				log.Printf("marshal error: %v", err)
				continue
			}

			// Key by symbol so a symbol's ticks land on one partition in order.
			msg := kafka.Message{Key: []byte(t.Symbol), Value: b, Time: t.TS}

			if err := w.WriteMessages(ctx, msg); err != nil {
				log.Printf("write error: %v", err)
				continue
			}
			log.Printf("sent: %s price=%v", t.Symbol, t.Price)
		}
	}
}
