package config

import (
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
)

// Duration is a time.Duration written as a Go duration string ("1s", "15m").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.New().Wrapf(errors.ErrInvalidInterval, err, "invalid duration %q", string(text))
	}
	d.Duration = parsed

	return nil
}
