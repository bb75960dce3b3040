package daemon

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/logger"
	"github.com/thejerf/suture/v4"
)

// outcome is what a task reports when it stops on its own.
type outcome struct {
	gen  uint64
	name string
	err  error
}

// task runs fn exactly once under a supervisor. A failure or panic is sent
// to results; the supervisor is always told not to restart it.
type task struct {
	name    string
	gen     uint64
	code    errors.ErrorCode
	fn      func(ctx context.Context) error
	results chan<- outcome
}

func (t *task) Serve(ctx context.Context) error {
	err := t.call(ctx)
	if err != nil && ctx.Err() == nil {
		select {
		case t.results <- outcome{gen: t.gen, name: t.name, err: err}:
		case <-ctx.Done():
		}
	}

	return suture.ErrDoNotRestart
}

func (t *task) call(ctx context.Context) (err error) {
	errFactory := errors.New()

	defer func() {
		if r := recover(); r != nil {
			err = errFactory.WithMessage(errors.ErrDialPanic, fmt.Sprintf("%s panicked: %v", t.name, r))
		}
	}()

	if err := t.fn(ctx); err != nil {
		return errFactory.Wrapf(t.code, err, "%s failed", t.name)
	}

	return nil
}

func (t *task) String() string {
	return t.name
}

func newSupervisor(name string, timeout time.Duration) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook: eventHook(logger.With("supervisor").With("supervisor", name)),
		Timeout:   timeout,
	})
}

func eventHook(log logger.Logger) suture.EventHook {
	return func(e suture.Event) {
		var ev *logger.LogEvent
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeStopTimeout, suture.EventTypeBackoff:
			ev = log.Warn()
		default:
			ev = log.Debug()
		}
		ev.Fields(e.Map()).Msg(e.String())
	}
}
