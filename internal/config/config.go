package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"*"`

	// FeedMode selects the live tick source: "kafka" or "websocket".
	FeedMode     string   `env:"FEED_MODE" envDefault:"kafka"`
	KafkaBrokers string   `env:"KAFKA_BROKERS" envDefault:"kafka:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"ticks"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"order-engine"`
	FeedURL      string   `env:"FEED_URL"`
	FeedSymbols  []string `env:"FEED_SYMBOLS" envSeparator:"," envDefault:"AAPL,MSFT,GOOGL"`

	BarsCacheTTL      time.Duration `env:"BARS_CACHE_TTL" envDefault:"60s"`
	ExpirySweep       time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"30s"`
	TerminalRetention time.Duration `env:"TERMINAL_RETENTION" envDefault:"24h"`
	BacktestTimeout   time.Duration `env:"BACKTEST_TIMEOUT" envDefault:"60s"`
}

func Load() (Config, error) {
	var cfg Config
	return cfg, env.Parse(&cfg)
}
