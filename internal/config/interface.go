package config

import "github.com/spf13/viper"

// Source yields the current configuration. The daemon reads it once at
// startup and again on every reload.
type Source interface {
	Load() (*Config, error)
}

// FileSource loads a config file and applies flag and environment
// overrides on top of it.
type FileSource struct {
	Path  string
	Viper *viper.Viper
}

func (s FileSource) Load() (*Config, error) {
	cfg, err := Load(s.Path)
	if err != nil {
		return nil, err
	}

	if s.Viper == nil {
		return cfg, nil
	}

	if err := ApplyOverrides(cfg, s.Viper); err != nil {
		return nil, err
	}

	return cfg, nil
}
