package config

import (
	"strings"

	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"server":          "server.address",
	"api-key":         "server.api_key",
	"log-level":       "log.level",
	"hotplug":         "hotplug.enabled",
	"hotplug-service": "hotplug.service",
	"metrics-listen":  "telemetry.listen",
}

// NewViper returns a viper instance reading VUPDATED_* environment
// variables, e.g. VUPDATED_SERVER_API_KEY.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range flagKeys {
		_ = v.BindEnv(key)
	}

	return v
}

// BindFlags binds every override flag present in flags.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	errFactory := errors.New()

	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errFactory.Wrapf(errors.ErrBindFlags, err, "failed to bind flag --%s", name)
		}
	}

	return nil
}

// ApplyOverrides copies every explicitly set flag or environment variable
// into cfg and validates the result.
func ApplyOverrides(cfg *Config, v *viper.Viper) error {
	if v.IsSet("server.address") {
		cfg.Server.Address = v.GetString("server.address")
	}
	if v.IsSet("server.api_key") {
		cfg.Server.APIKey = v.GetString("server.api_key")
	}
	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("hotplug.enabled") {
		cfg.Hotplug.Enabled = v.GetBool("hotplug.enabled")
	}
	if v.IsSet("hotplug.service") {
		cfg.Hotplug.Service = v.GetString("hotplug.service")
	}
	if v.IsSet("telemetry.listen") {
		cfg.Telemetry.Listen = v.GetString("telemetry.listen")
	}

	return cfg.Validate()
}
