package config

import (
	"bytes"
	"os"
	"path/filepath"

	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/pelletier/go-toml/v2"
)

// Config is the daemon configuration file.
type Config struct {
	Server    ServerConfig          `toml:"server"`
	Hotplug   HotplugConfig         `toml:"hotplug"`
	Log       LogConfig             `toml:"log"`
	History   HistoryConfig         `toml:"history"`
	Telemetry TelemetryConfig       `toml:"telemetry"`
	Retries   RetryConfig           `toml:"retries"`
	Dials     map[string]DialConfig `toml:"dials"`
}

type ServerConfig struct {
	Address           string  `toml:"address"`
	APIKey            string  `toml:"api_key"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

type HotplugConfig struct {
	Enabled bool   `toml:"enabled"`
	Service string `toml:"service"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type HistoryConfig struct {
	Enabled       bool     `toml:"enabled"`
	Path          string   `toml:"path"`
	BatchSize     int      `toml:"batch_size"`
	FlushInterval Duration `toml:"flush_interval"`
}

type TelemetryConfig struct {
	// Listen is the address of the /metrics endpoint; empty disables it.
	Listen string `toml:"listen"`
}

type RetryConfig struct {
	InitialBackoff Duration `toml:"initial_backoff"`
	Jitter         float64  `toml:"jitter"`
	Multiplier     float64  `toml:"multiplier"`
	MaxBackoff     Duration `toml:"max_backoff"`
	MaxElapsedTime Duration `toml:"max_elapsed_time"`
}

// DialConfig assigns a metric to the dial at Index.
type DialConfig struct {
	Index           int              `toml:"index"`
	Metric          string           `toml:"metric"`
	UpdateInterval  Duration         `toml:"update_interval"`
	DialEasing      *EasingConfig    `toml:"dial_easing,omitempty"`
	BacklightEasing *EasingConfig    `toml:"backlight_easing,omitempty"`
	Backlight       *BacklightConfig `toml:"backlight,omitempty"`
}

type EasingConfig struct {
	PeriodMs int `toml:"period_ms"`
	Step     int `toml:"step"`
}

type BacklightConfig struct {
	Red   int `toml:"red"`
	Green int `toml:"green"`
	Blue  int `toml:"blue"`
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("$HOME", ".config", "vupdated", "config.toml")
	}

	return filepath.Join(dir, "vupdated", "config.toml")
}

// Load reads the config file at path over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	errFactory := errors.New()
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errFactory.Wrapf(errors.ErrMissingConfig, err, "config file %s does not exist", path)
		}
		return nil, errFactory.Wrapf(errors.ErrReadConfig, err, "failed to read config file %s", path)
	}

	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, errFactory.Wrapf(errors.ErrReadConfig, err, "failed to parse config file %s", path)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Write stores c at path, creating parent directories as needed.
func (c *Config) Write(path string) error {
	errFactory := errors.New()

	data, err := toml.Marshal(c)
	if err != nil {
		return errFactory.Wrap(errors.ErrWriteConfig, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errFactory.Wrapf(errors.ErrWriteConfig, err, "failed to create config directory %s", dir)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errFactory.Wrapf(errors.ErrWriteConfig, err, "failed to write config file %s", path)
	}

	return nil
}
