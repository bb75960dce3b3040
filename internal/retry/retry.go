package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Notify is called after every failed attempt that will be retried, with
// the name of the operation, its error and the delay before the next try.
type Notify func(op string, err error, next time.Duration)

// Policy retries transient failures with exponential backoff. A Policy is
// immutable and safe for concurrent use; each call builds its own backoff
// sequence.
type Policy struct {
	cfg       Config
	permanent func(error) bool
	notify    []Notify
}

type Option func(*Policy)

// WithClassifier sets the predicate deciding which errors are permanent.
// Without one, every error is retried.
func WithClassifier(permanent func(error) bool) Option {
	return func(p *Policy) {
		p.permanent = permanent
	}
}

// WithNotify adds an observer for failed attempts.
func WithNotify(fn Notify) Option {
	return func(p *Policy) {
		p.notify = append(p.notify, fn)
	}
}

func New(cfg Config, opts ...Option) *Policy {
	p := &Policy{
		cfg:       cfg,
		permanent: func(error) bool { return false },
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// With returns a copy of p with opts applied.
func (p *Policy) With(opts ...Option) *Policy {
	cp := &Policy{
		cfg:       p.cfg,
		permanent: p.permanent,
		notify:    append([]Notify(nil), p.notify...),
	}
	for _, opt := range opts {
		opt(cp)
	}

	return cp
}

func (p *Policy) Config() Config {
	return p.cfg
}

// NewBackOff returns a fresh backoff sequence for one retried call.
func (p *Policy) NewBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialBackoff
	b.RandomizationFactor = p.cfg.Jitter
	b.Multiplier = p.cfg.Multiplier
	b.MaxInterval = p.cfg.MaxBackoff
	b.MaxElapsedTime = p.cfg.MaxElapsedTime
	b.Reset()

	return b
}

// Do calls fn until it succeeds, fails permanently, the elapsed-time budget
// runs out or ctx is done. The last error from fn is returned.
func (p *Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempt := func() error {
		err := fn(ctx)
		if err != nil && p.permanent(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, next time.Duration) {
		for _, n := range p.notify {
			n(op, err, next)
		}
	}

	return backoff.RetryNotify(attempt, backoff.WithContext(p.NewBackOff(), ctx), notify)
}

// Value is Do for operations producing a result.
func Value[T any](ctx context.Context, p *Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v

		return nil
	})

	return out, err
}
