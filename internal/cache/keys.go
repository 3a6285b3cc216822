package cache

import (
	"fmt"
	"time"
)

// BarsKey identifies one historical-bars query. The ristretto layer keys on
// the String form; day resolution is enough because history is served as
// daily bars.
type BarsKey struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

func Bars(symbol string, start, end time.Time) BarsKey {
	return BarsKey{Symbol: symbol, Start: start, End: end}
}

func (k BarsKey) String() string {
	return fmt.Sprintf("bars|%s|%s|%s", k.Symbol, k.Start.Format("2006-01-02"), k.End.Format("2006-01-02"))
}
