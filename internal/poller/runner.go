// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls until ctx is done, handing each snapshot to handle before sleeping.
// Cycles never overlap: the full interval is slept after handle returns, so a
// slow device pushes the next cycle back instead of being caught up.
// With once set it returns after the first cycle without sleeping.
func (p *Poller) Run(ctx context.Context, every time.Duration, once bool, handle func(Snapshot)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		handle(p.PollOnce())

		if once {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(every):
		}
	}
}
