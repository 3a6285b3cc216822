package main

import "time"

// Tick is the JSON schema the order engine's consumer expects.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"` // RFC3339
}
