package ratelimit

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces operations to a target rate and adds random jitter on top
// so that request timing does not form a regular, detectable signature.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	rl       *rate.Limiter
	jitter   float64 // 0.0 to 1.0, fraction of the interval
	interval time.Duration
}

// NewLimiter creates a limiter allowing rps requests per second with the
// given jitter fraction. Jitter is clamped to [0.0, 1.0].
// If rps is <= 0, the limiter never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}

	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	return &Limiter{
		rl:       rate.NewLimiter(rate.Limit(rps), 1),
		jitter:   jitter,
		interval: time.Duration(float64(time.Second) / rps),
	}
}

// Wait blocks until the next operation may proceed, or until the context is
// canceled. When jitter is configured, an extra random delay of up to
// jitter*interval is added after the rate gate opens.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.rl == nil {
		return nil
	}

	if err := l.rl.Wait(ctx); err != nil {
		return err
	}

	if l.jitter > 0 {
		extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
		if extra > 0 {
			t := time.NewTimer(extra)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
	}

	return nil
}

// Interval reports the base spacing between operations, zero for an
// unlimited limiter.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
