// Package signals turns process signals into daemon actions.
package signals

import (
	"context"
	"os"
	"os/signal"
)

// Action is what the daemon should do in response to a signal.
type Action int

const (
	Reload Action = iota + 1
	Shutdown
)

func (a Action) String() string {
	switch a {
	case Reload:
		return "reload"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Notify delivers an Action for every handled signal until ctx is done,
// then closes the channel.
func Notify(ctx context.Context) <-chan Action {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, watched...)

	out := make(chan Action)
	go func() {
		defer close(out)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				action, ok := actionFor(sig)
				if !ok {
					continue
				}
				select {
				case out <- action:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
