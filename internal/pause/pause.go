// Package pause provides the run/pause flag shared between the hotplug
// watcher and the dial managers: one writer, any number of readers.
package pause

import (
	"context"
	"sync"

	"codeberg.org/mutker/vupdated/internal/errors"
)

// ErrClosed is reported to readers waiting on a closed signal.
const ErrClosed = errors.ErrorCode("pause_signal_closed")

type cell struct {
	mu      sync.Mutex
	running bool
	closed  bool
	changed chan struct{}
}

// Sender is the single writer of the signal.
type Sender struct {
	c *cell
}

// Receiver observes the signal. Receivers are cheap to copy and share.
type Receiver struct {
	c *cell
}

// New returns a connected pair, initially running.
func New() (*Sender, Receiver) {
	c := &cell{running: true, changed: make(chan struct{})}

	return &Sender{c: c}, Receiver{c: c}
}

// Set publishes running. Waiters are woken only when the value changes.
func (s *Sender) Set(running bool) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if s.c.closed || s.c.running == running {
		return
	}
	s.c.running = running
	close(s.c.changed)
	s.c.changed = make(chan struct{})
}

// Close wakes every waiter with ErrClosed. The last value stays readable.
func (s *Sender) Close() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if s.c.closed {
		return
	}
	s.c.closed = true
	close(s.c.changed)
}

// Subscribe returns a new Receiver on the same signal.
func (s *Sender) Subscribe() Receiver {
	return Receiver{c: s.c}
}

// Running returns the current value.
func (r Receiver) Running() bool {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	return r.c.running
}

// WaitRunning blocks until the signal reads true, ctx is done, or the
// sender is closed while paused.
func (r Receiver) WaitRunning(ctx context.Context) error {
	for {
		r.c.mu.Lock()
		running, closed, changed := r.c.running, r.c.closed, r.c.changed
		r.c.mu.Unlock()

		if running {
			return nil
		}
		if closed {
			return errors.New().New(ErrClosed)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
