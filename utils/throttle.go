package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces out page visits to at most one per interval.
// A zero interval disables throttling.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a Throttle allowing one event every rateLimitMs milliseconds.
func NewThrottle(rateLimitMs int) *Throttle {
	if rateLimitMs <= 0 {
		return &Throttle{}
	}
	interval := time.Duration(rateLimitMs) * time.Millisecond
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next visit is allowed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil || t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}
