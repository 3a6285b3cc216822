package main

import (
	"math"
	"math/rand"
	"time"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

var (
	stocks    = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "NFLX"}
	stockBase = map[string]float64{"AAPL": 190, "MSFT": 420, "GOOGL": 145, "AMZN": 180, "TSLA": 220, "NVDA": 800, "NFLX": 550}

	cryptos    = []string{"BTC", "ETH", "SOL", "ADA", "XRP"}
	cryptoBase = map[string]float64{"BTC": 60000, "ETH": 3200, "SOL": 150, "ADA": 0.45, "XRP": 0.6}

	// last holds the walk state per symbol so successive ticks drift rather
	// than jump.
	last = map[string]float64{}
)

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}

func pick[T any](xs []T) T { return xs[rng.Intn(len(xs))] }

func genTick() Tick {
	var sym string
	var base float64
	var places int

	if rng.Intn(2) == 0 {
		sym = pick(stocks)
		base = stockBase[sym]
		places = 2
	} else {
		sym = pick(cryptos)
		base = cryptoBase[sym]
		places = 4
	}

	px, ok := last[sym]
	if !ok {
		px = base
	}
	// random walk: ±0.25% per tick, pulled gently back toward base
	px *= 1 + (rng.Float64()-0.5)*0.005
	px += (base - px) * 0.01
	px = round(px, places)
	last[sym] = px

	return Tick{Symbol: sym, Price: px, TS: time.Now().UTC()}
}
