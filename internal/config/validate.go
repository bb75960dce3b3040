package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/sensor"
	"codeberg.org/mutker/vupdated/internal/vu"
)

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelTrace   LogLevel = "trace"
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch LogLevel(strings.ToLower(string(l))) {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateServer,
		c.validateLog,
		c.validateHistory,
		c.validateRetries,
		c.validateDials,
	} {
		if err := check(); err != nil {
			return err
		}
	}

	return nil
}

func invalid(format string, args ...any) error {
	return errors.New().WithMessage(errors.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) validateServer() error {
	u, err := url.Parse(c.Server.Address)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("server.address %q is not an http(s) URL", c.Server.Address)
	}
	if c.Server.RequestsPerSecond < 0 {
		return invalid("server.requests_per_second must not be negative")
	}
	if c.Hotplug.Enabled && strings.TrimSpace(c.Hotplug.Service) == "" {
		return invalid("hotplug.service must be set when hotplug is enabled")
	}

	return nil
}

func (c *Config) validateLog() error {
	if !LogLevel(c.Log.Level).IsValid() {
		return errors.New().WithData(errors.ErrInvalidLogLevel, c.Log.Level)
	}

	return nil
}

func (c *Config) validateHistory() error {
	if !c.History.Enabled {
		return nil
	}
	if strings.TrimSpace(c.History.Path) == "" {
		return invalid("history.path must be set when history is enabled")
	}
	if c.History.BatchSize <= 0 {
		return invalid("history.batch_size must be positive")
	}
	if c.History.FlushInterval.Duration <= 0 {
		return invalid("history.flush_interval must be positive")
	}

	return nil
}

func (c *Config) validateRetries() error {
	if err := c.RetryConfig().Validate(); err != nil {
		return errors.New().Wrapf(errors.ErrInvalidConfig, err, "invalid [retries]")
	}

	return nil
}

func (c *Config) validateDials() error {
	names := make([]string, 0, len(c.Dials))
	for name := range c.Dials {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := c.Dials[name].settings(name); err != nil {
			return err
		}
	}

	return nil
}

func (d DialConfig) validate(name string) (sensor.Metric, error) {
	errFactory := errors.New()

	if strings.TrimSpace(name) == "" {
		return 0, invalid("dial names must not be empty")
	}
	if d.Index < 0 {
		return 0, invalid("dial %q: index must not be negative", name)
	}
	if d.UpdateInterval.Duration <= 0 {
		return 0, invalid("dial %q: update_interval must be positive", name)
	}

	metric, err := sensor.ParseMetric(d.Metric)
	if err != nil {
		return 0, errFactory.Wrapf(errors.ErrInvalidConfig, err, "dial %q", name)
	}

	return metric, nil
}

func (e *EasingConfig) easing(name, field string) (*vu.Easing, error) {
	if e == nil {
		return nil, nil
	}

	easing, err := vu.NewEasing(e.PeriodMs, e.Step)
	if err != nil {
		return nil, errors.New().Wrapf(errors.ErrInvalidConfig, err, "dial %q: invalid %s", name, field)
	}

	return &easing, nil
}

func (b *BacklightConfig) backlight(name string) (vu.Backlight, error) {
	if b == nil {
		return vu.DefaultBacklight, nil
	}

	bl, err := vu.NewBacklight(b.Red, b.Green, b.Blue)
	if err != nil {
		return vu.Backlight{}, errors.New().Wrapf(errors.ErrInvalidConfig, err, "dial %q: invalid backlight", name)
	}

	return bl, nil
}
