// Package throttle paces consecutive email sends. The delay between sends is
// a deliberate rate-limiting control, so it lives behind an explicit
// abstraction with an injectable sleep for tests.
package throttle

import (
	"context"
	"math/rand"
	"time"
)

// DefaultJitter is the fraction applied around the base delay when none is
// configured: each wait lasts base scaled by U(0.8, 1.2).
const DefaultJitter = 0.2

type Limiter struct {
	// Jitter is the fraction of the base delay to randomize by.
	Jitter float64

	// Sleep overrides the context-aware sleep; tests inject a recorder here.
	Sleep func(d time.Duration)
}

func New(jitter float64) *Limiter {
	return &Limiter{Jitter: jitter}
}

// Wait suspends the caller for base scaled by a uniform jitter factor.
// Returns early when ctx is cancelled; the send already in flight is
// unaffected, only the pause is cut short.
func (l *Limiter) Wait(ctx context.Context, base time.Duration) {
	if base <= 0 {
		return
	}
	d := jittered(base, l.Jitter)
	if l.Sleep != nil {
		l.Sleep(d)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	factor := 1 + jitter*(2*rand.Float64()-1)
	return time.Duration(float64(base) * factor)
}
