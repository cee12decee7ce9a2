// internal/poller/retry.go
package poller

import "time"

// Backoff is a capped exponential retry budget.
type Backoff struct {
	Attempts int           // total attempts, including the first
	Base     time.Duration // pause before the first retry
	Max      time.Duration // ceiling for the doubled pause; 0 = no ceiling
}

// Delay returns the pause before retry n. n is zero-based: Delay(0) is the
// pause between the first attempt and the first retry.
func (b Backoff) Delay(n int) time.Duration {
	d := b.Base
	if d <= 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}
