// Package indicator provides technical indicator calculations over price
// series.
//
// All functions are pure: they take an ordered series (oldest first) and
// return a series of the same length. Positions inside the warm-up window,
// where the lookback is not yet satisfied, hold NaN.
package indicator

import "math"

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA returns the simple moving average over period.
func SMA(prices []float64, period int) []float64 {
	out := nanSeries(len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}
	var sum float64
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA returns the exponential moving average over period, seeded with the SMA
// of the first period values.
func EMA(prices []float64, period int) []float64 {
	out := nanSeries(len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}
	var seed float64
	for _, p := range prices[:period] {
		seed += p
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(prices); i++ {
		prev = prices[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// RSI returns the relative strength index using rolling means of gains and
// losses (not Wilder smoothing; parity with the dashboard's formula matters
// more than the textbook variant).
func RSI(prices []float64, period int) []float64 {
	out := nanSeries(len(prices))
	if period <= 0 || len(prices) <= period {
		return out
	}
	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	for i := period; i < len(prices); i++ {
		var g, l float64
		for j := i - period + 1; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		g /= float64(period)
		l /= float64(period)
		if l == 0 {
			out[i] = 100
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACDResult holds the three MACD series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD returns EMA(fast)-EMA(slow), its EMA(signalPeriod) signal line, and
// the histogram (MACD minus signal).
func MACD(prices []float64, fast, slow, signalPeriod int) MACDResult {
	n := len(prices)
	res := MACDResult{MACD: nanSeries(n), Signal: nanSeries(n), Histogram: nanSeries(n)}
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 || n < slow {
		return res
	}
	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)
	for i := slow - 1; i < n; i++ {
		res.MACD[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal line is an EMA over the defined portion of the MACD line.
	macdTail := res.MACD[slow-1:]
	sig := EMA(macdTail, signalPeriod)
	for i, v := range sig {
		res.Signal[slow-1+i] = v
		if !math.IsNaN(v) {
			res.Histogram[slow-1+i] = macdTail[i] - v
		}
	}
	return res
}

// BollingerResult holds the three Bollinger band series.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger returns k-standard-deviation bands around the period SMA.
func Bollinger(prices []float64, period int, k float64) BollingerResult {
	n := len(prices)
	res := BollingerResult{Upper: nanSeries(n), Middle: SMA(prices, period), Lower: nanSeries(n)}
	if period <= 0 || n < period {
		return res
	}
	for i := period - 1; i < n; i++ {
		mean := res.Middle[i]
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := prices[j] - mean
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period))
		res.Upper[i] = mean + k*sd
		res.Lower[i] = mean - k*sd
	}
	return res
}

// StochasticResult holds the %K and %D series.
type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic returns %K from the rolling high/low range and %D, a 3-period
// SMA of %K.
func Stochastic(highs, lows, closes []float64, period int) StochasticResult {
	n := len(closes)
	res := StochasticResult{K: nanSeries(n), D: nanSeries(n)}
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return res
	}
	for i := period - 1; i < n; i++ {
		hh := highs[i-period+1]
		ll := lows[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			res.K[i] = 50
		} else {
			res.K[i] = 100 * (closes[i] - ll) / (hh - ll)
		}
	}
	// %D: 3-period SMA of %K over its defined range.
	for i := period + 1; i < n; i++ {
		res.D[i] = (res.K[i] + res.K[i-1] + res.K[i-2]) / 3
	}
	return res
}

// WilliamsR returns Williams %R, the inverse-scaled stochastic %K on a
// [-100, 0] range.
func WilliamsR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSeries(n)
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return out
	}
	for i := period - 1; i < n; i++ {
		hh := highs[i-period+1]
		ll := lows[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			out[i] = -50
		} else {
			out[i] = -100 * (hh - closes[i]) / (hh - ll)
		}
	}
	return out
}

// CCI returns the commodity channel index: typical-price deviation from its
// SMA divided by 0.015 times the mean absolute deviation.
func CCI(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSeries(n)
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return out
	}
	tp := make([]float64, n)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	sma := SMA(tp, period)
	for i := period - 1; i < n; i++ {
		var mad float64
		for j := i - period + 1; j <= i; j++ {
			mad += math.Abs(tp[j] - sma[i])
		}
		mad /= float64(period)
		if mad == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - sma[i]) / (0.015 * mad)
	}
	return out
}
