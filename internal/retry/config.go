package retry

import (
	"fmt"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
)

const (
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultJitter         = 0.5
	DefaultMultiplier     = 1.5
	DefaultMaxBackoff     = 60 * time.Second
	DefaultMaxElapsedTime = 15 * time.Minute
)

// Config describes an exponential backoff sequence.
type Config struct {
	InitialBackoff time.Duration
	// Jitter randomizes each delay by up to ±Jitter of its value.
	Jitter     float64
	Multiplier float64
	MaxBackoff time.Duration
	// MaxElapsedTime bounds the total time spent retrying. Zero retries
	// forever.
	MaxElapsedTime time.Duration
}

func DefaultConfig() Config {
	return Config{
		InitialBackoff: DefaultInitialBackoff,
		Jitter:         DefaultJitter,
		Multiplier:     DefaultMultiplier,
		MaxBackoff:     DefaultMaxBackoff,
		MaxElapsedTime: DefaultMaxElapsedTime,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	switch {
	case c.InitialBackoff <= 0:
		return errFactory.WithMessage(ErrInvalidPolicy,
			fmt.Sprintf("initial backoff must be positive, got %s", c.InitialBackoff))
	case c.Jitter < 0 || c.Jitter > 1:
		return errFactory.WithMessage(ErrInvalidPolicy,
			fmt.Sprintf("jitter must be between 0 and 1, got %g", c.Jitter))
	case c.Multiplier < 1:
		return errFactory.WithMessage(ErrInvalidPolicy,
			fmt.Sprintf("multiplier must be at least 1, got %g", c.Multiplier))
	case c.MaxBackoff < c.InitialBackoff:
		return errFactory.WithMessage(ErrInvalidPolicy,
			fmt.Sprintf("max backoff %s is shorter than initial backoff %s", c.MaxBackoff, c.InitialBackoff))
	case c.MaxElapsedTime < 0:
		return errFactory.WithMessage(ErrInvalidPolicy,
			fmt.Sprintf("max elapsed time must not be negative, got %s", c.MaxElapsedTime))
	}

	return nil
}
