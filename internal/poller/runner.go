// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Runner drives all inverters from one goroutine. Inverters are polled
// strictly in config order; a cycle that fails for one inverter never
// blocks the others in the same pass.
type Runner struct {
	inverters []*Inverter
	interval  time.Duration
	log       zerolog.Logger
}

func NewRunner(inverters []*Inverter, interval time.Duration, log zerolog.Logger) (*Runner, error) {
	if len(inverters) == 0 {
		return nil, errors.New("poller: at least one inverter required")
	}
	if interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	return &Runner{inverters: inverters, interval: interval, log: log}, nil
}

// Run polls immediately, then on every tick, and emits one PollResult per
// inverter per pass on out. It returns when ctx is done.
func (r *Runner) Run(ctx context.Context, out chan<- PollResult) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.pass(ctx, out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx, out)
		}
	}
}

func (r *Runner) pass(ctx context.Context, out chan<- PollResult) {
	started := time.Now()

	for _, inv := range r.inverters {
		if ctx.Err() != nil {
			return
		}
		res := inv.PollOnce(ctx)
		select {
		case out <- res:
		case <-ctx.Done():
			return
		}
	}

	r.log.Debug().
		Int("inverters", len(r.inverters)).
		Dur("took", time.Since(started)).
		Msg("poll pass complete")
}

// Close releases every inverter connection. The runner must not be
// running anymore.
func (r *Runner) Close() error {
	var last error
	for _, inv := range r.inverters {
		if err := inv.Close(); err != nil {
			last = err
		}
	}
	return last
}
