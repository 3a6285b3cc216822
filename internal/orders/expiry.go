package orders

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/img0j0/tradewise-ai-sub003/internal/domain"
)

// SweepExpired transitions every non-terminal order whose expiry has passed
// to EXPIRED and returns how many moved.
func (r *Registry) SweepExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := 0
	for _, o := range r.orders {
		if o.Status.Terminal() || o.ExpiresAt == nil || o.ExpiresAt.After(now) {
			continue
		}
		o.Status = domain.StatusExpired
		o.Notes = append(o.Notes, "expired: time in force elapsed")
		o.UpdatedAt = r.now()
		expired++
		r.logger.Debug("order expired", zap.String("id", o.ID))
	}
	return expired
}

// RunExpirySweeper sweeps on the given interval until the context ends.
func (r *Registry) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.SweepExpired(now); n > 0 {
				r.logger.Info("expiry sweep", zap.Int("expired", n))
			}
		}
	}
}
