package config

import (
	"time"

	"codeberg.org/mutker/vupdated/internal/retry"
	"codeberg.org/mutker/vupdated/internal/vu"
)

const (
	EnvPrefix = "VUPDATED"

	DefaultHotplugService = "VU-Server.service"
	DefaultLogLevel       = "info"
	DefaultHistoryPath    = "/var/lib/vupdated/history.db"
	DefaultHistoryBatch   = 32
	DefaultHistoryFlush   = 30 * time.Second
	DefaultUpdateInterval = time.Second
)

// Default returns the configuration used for every field the file omits.
func Default() *Config {
	r := retry.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Address: vu.DefaultAddress,
		},
		Hotplug: HotplugConfig{
			Service: DefaultHotplugService,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		History: HistoryConfig{
			Path:          DefaultHistoryPath,
			BatchSize:     DefaultHistoryBatch,
			FlushInterval: Duration{DefaultHistoryFlush},
		},
		Retries: RetryConfig{
			InitialBackoff: Duration{r.InitialBackoff},
			Jitter:         r.Jitter,
			Multiplier:     r.Multiplier,
			MaxBackoff:     Duration{r.MaxBackoff},
			MaxElapsedTime: Duration{r.MaxElapsedTime},
		},
		Dials: map[string]DialConfig{},
	}
}

func (c *Config) normalize() {
	if c.Dials == nil {
		c.Dials = map[string]DialConfig{}
	}

	for name, d := range c.Dials {
		if d.UpdateInterval.Duration == 0 {
			d.UpdateInterval = Duration{DefaultUpdateInterval}
			c.Dials[name] = d
		}
	}
}
