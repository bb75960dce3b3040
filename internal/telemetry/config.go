package telemetry

import (
	"net"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
)

const (
	namespace              = "vupdated"
	metricsPath            = "/metrics"
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

type Config struct {
	// Listen is the address of the /metrics endpoint; empty disables it.
	Listen          string
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func (c Config) Enabled() bool {
	return c.Listen != ""
}

func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return errors.New().Wrapf(ErrInvalidConfig, err, "invalid telemetry listen address %q", c.Listen)
	}

	return nil
}
