package cmd

import (
	"context"
	"time"

	builtin "github.com/404wolf/livefs/builtin"
)

// recordTicks stands in for an application's background workers: it writes
// to the shared state from its own goroutine while the loop serves reads.
func recordTicks(ctx context.Context, state *builtin.State, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			state.Add("ticks", 1)
			state.Set("lastTick", now.Format(time.RFC3339))
		}
	}
}
