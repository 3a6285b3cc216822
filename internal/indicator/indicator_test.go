package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func countNaNPrefix(s []float64) int {
	for i, v := range s {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(s)
}

func TestSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	got := SMA(prices, 3)

	if n := countNaNPrefix(got); n != 2 {
		t.Fatalf("warm-up prefix = %d, want 2", n)
	}
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}
	for i := 2; i < len(want); i++ {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("SMA[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSMAShortSeries(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	if n := countNaNPrefix(got); n != 2 {
		t.Errorf("series shorter than period should be all NaN, prefix = %d", n)
	}
}

func TestEMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6}
	got := EMA(prices, 3)

	if n := countNaNPrefix(got); n != 2 {
		t.Fatalf("warm-up prefix = %d, want 2", n)
	}
	// Seeded with SMA(1,2,3)=2, k=0.5.
	if !almostEqual(got[2], 2) {
		t.Errorf("EMA seed = %v, want 2", got[2])
	}
	if !almostEqual(got[3], 3) { // 4*0.5 + 2*0.5
		t.Errorf("EMA[3] = %v, want 3", got[3])
	}
	if !almostEqual(got[4], 4) { // 5*0.5 + 3*0.5
		t.Errorf("EMA[4] = %v, want 4", got[4])
	}
}

func TestRSI(t *testing.T) {
	// Strictly rising series: no losses, RSI pegs at 100.
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	got := RSI(up, 4)
	if n := countNaNPrefix(got); n != 4 {
		t.Fatalf("warm-up prefix = %d, want 4", n)
	}
	for i := 4; i < len(got); i++ {
		if !almostEqual(got[i], 100) {
			t.Errorf("rising RSI[%d] = %v, want 100", i, got[i])
		}
	}

	// Strictly falling series pegs at 0.
	down := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	got = RSI(down, 4)
	for i := 4; i < len(got); i++ {
		if !almostEqual(got[i], 0) {
			t.Errorf("falling RSI[%d] = %v, want 0", i, got[i])
		}
	}

	// Alternating equal gains and losses balance to 50.
	flat := []float64{10, 11, 10, 11, 10, 11, 10}
	got = RSI(flat, 4)
	for i := 4; i < len(got); i++ {
		if !almostEqual(got[i], 50) {
			t.Errorf("alternating RSI[%d] = %v, want 50", i, got[i])
		}
	}
}

func TestMACD(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	res := MACD(prices, 12, 26, 9)

	if n := countNaNPrefix(res.MACD); n != 25 {
		t.Errorf("MACD warm-up = %d, want 25", n)
	}
	// On a linear ramp the fast EMA tracks above the slow EMA.
	for i := 40; i < len(prices); i++ {
		if res.MACD[i] <= 0 {
			t.Errorf("MACD[%d] = %v, want > 0 on rising ramp", i, res.MACD[i])
		}
	}
	if n := countNaNPrefix(res.Signal); n != 25+9-1 {
		t.Errorf("signal warm-up = %d, want %d", n, 25+9-1)
	}
	for i := 40; i < len(prices); i++ {
		if !almostEqual(res.Histogram[i], res.MACD[i]-res.Signal[i]) {
			t.Errorf("histogram[%d] inconsistent", i)
		}
	}
}

func TestBollinger(t *testing.T) {
	// Constant series: zero stddev, all bands collapse onto the mean.
	flat := []float64{5, 5, 5, 5, 5, 5}
	res := Bollinger(flat, 3, 2)
	for i := 2; i < len(flat); i++ {
		if !almostEqual(res.Upper[i], 5) || !almostEqual(res.Middle[i], 5) || !almostEqual(res.Lower[i], 5) {
			t.Errorf("flat bands at %d = %v/%v/%v, want 5/5/5", i, res.Upper[i], res.Middle[i], res.Lower[i])
		}
	}

	prices := []float64{2, 4, 6}
	res = Bollinger(prices, 3, 2)
	// mean 4, population stddev sqrt(8/3).
	sd := math.Sqrt(8.0 / 3.0)
	if !almostEqual(res.Upper[2], 4+2*sd) {
		t.Errorf("upper = %v, want %v", res.Upper[2], 4+2*sd)
	}
	if !almostEqual(res.Lower[2], 4-2*sd) {
		t.Errorf("lower = %v, want %v", res.Lower[2], 4-2*sd)
	}
}

func TestStochastic(t *testing.T) {
	highs := []float64{10, 12, 14, 16, 18}
	lows := []float64{8, 9, 10, 11, 12}
	closes := []float64{9, 11, 14, 15, 18}
	res := Stochastic(highs, lows, closes, 3)

	if n := countNaNPrefix(res.K); n != 2 {
		t.Fatalf("%%K warm-up = %d, want 2", n)
	}
	// Bar 4: range [10,18], close 18 -> %K = 100.
	if !almostEqual(res.K[4], 100) {
		t.Errorf("%%K[4] = %v, want 100", res.K[4])
	}
	if n := countNaNPrefix(res.D); n != 4 {
		t.Errorf("%%D warm-up = %d, want 4", n)
	}
}

func TestWilliamsR(t *testing.T) {
	highs := []float64{10, 12, 14}
	lows := []float64{8, 9, 10}
	closes := []float64{9, 11, 14}
	got := WilliamsR(highs, lows, closes, 3)

	// Close at the period high -> 0; inverse of %K at 100.
	if !almostEqual(got[2], 0) {
		t.Errorf("WilliamsR = %v, want 0", got[2])
	}

	closes[2] = 8 // at the period low
	got = WilliamsR(highs, lows, closes, 3)
	if !almostEqual(got[2], -100) {
		t.Errorf("WilliamsR = %v, want -100", got[2])
	}
}

func TestCCI(t *testing.T) {
	// Constant typical price: deviation and MAD are both zero, guarded to 0.
	h := []float64{10, 10, 10, 10}
	l := []float64{10, 10, 10, 10}
	c := []float64{10, 10, 10, 10}
	got := CCI(h, l, c, 3)
	for i := 2; i < 4; i++ {
		if !almostEqual(got[i], 0) {
			t.Errorf("flat CCI[%d] = %v, want 0", i, got[i])
		}
	}

	// A spike above the average produces a positive reading.
	c2 := []float64{10, 10, 10, 16}
	h2 := []float64{10, 10, 10, 16}
	l2 := []float64{10, 10, 10, 16}
	got = CCI(h2, l2, c2, 3)
	if got[3] <= 0 {
		t.Errorf("spike CCI = %v, want > 0", got[3])
	}
}
