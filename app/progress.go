package app

import (
	"context"
	"fmt"
	"io"

	"github.com/kilianp07/groupbalance/core/balance"
	"github.com/kilianp07/groupbalance/internal/eventbus"
)

// WatchProgress prints a line to w for every improvement published on bus
// until ctx is cancelled or the bus is closed. The returned channel is
// closed once the watcher has stopped.
func WatchProgress(ctx context.Context, bus *eventbus.TypedBus[balance.Improvement], w io.Writer) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || w == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				_, _ = fmt.Fprintf(w, "best group replaced: worker %d iteration %d fitness %.6f\n",
					ev.Worker, ev.Iteration, ev.Fitness)
			}
		}
	}()
	return done
}
