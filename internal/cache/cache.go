package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/img0j0/tradewise-ai-sub003/internal/models"
)

// Cache is a TTL cache for historical-bar query results. Cost is the bar
// count so MaxCost roughly bounds resident bars.
type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func New(maxCost int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

func (c *Cache) GetBars(key BarsKey) ([]models.Bar, bool) {
	v, ok := c.c.Get(key.String())
	if !ok {
		return nil, false
	}
	bars, ok := v.([]models.Bar)
	return bars, ok
}

func (c *Cache) SetBars(key BarsKey, bars []models.Bar) {
	cost := int64(len(bars))
	if cost == 0 {
		cost = 1
	}
	c.c.SetWithTTL(key.String(), bars, cost, c.ttl)
}

func (c *Cache) Del(key BarsKey) { c.c.Del(key.String()) }
