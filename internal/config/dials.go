package config

import (
	"sort"

	"codeberg.org/mutker/vupdated/internal/dial"
	"codeberg.org/mutker/vupdated/internal/history"
	"codeberg.org/mutker/vupdated/internal/retry"
)

// DialSpec is a validated dial entry: the index of the physical dial to
// drive and the settings of its manager.
type DialSpec struct {
	Index    int
	Settings dial.Settings
}

func (d DialConfig) settings(name string) (dial.Settings, error) {
	metric, err := d.validate(name)
	if err != nil {
		return dial.Settings{}, err
	}

	dialEasing, err := d.DialEasing.easing(name, "dial_easing")
	if err != nil {
		return dial.Settings{}, err
	}

	backlightEasing, err := d.BacklightEasing.easing(name, "backlight_easing")
	if err != nil {
		return dial.Settings{}, err
	}

	backlight, err := d.Backlight.backlight(name)
	if err != nil {
		return dial.Settings{}, err
	}

	return dial.Settings{
		Name:            name,
		Metric:          metric,
		UpdateInterval:  d.UpdateInterval.Duration,
		DialEasing:      dialEasing,
		BacklightEasing: backlightEasing,
		Backlight:       backlight,
	}, nil
}

// DialSpecs resolves every dial entry, ordered by index and then by name.
func (c *Config) DialSpecs() ([]DialSpec, error) {
	specs := make([]DialSpec, 0, len(c.Dials))
	for name, d := range c.Dials {
		s, err := d.settings(name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, DialSpec{Index: d.Index, Settings: s})
	}

	sort.Slice(specs, func(i, j int) bool {
		if specs[i].Index != specs[j].Index {
			return specs[i].Index < specs[j].Index
		}
		return specs[i].Settings.Name < specs[j].Settings.Name
	})

	return specs, nil
}

// RetryConfig converts the [retries] section.
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		InitialBackoff: c.Retries.InitialBackoff.Duration,
		Jitter:         c.Retries.Jitter,
		Multiplier:     c.Retries.Multiplier,
		MaxBackoff:     c.Retries.MaxBackoff.Duration,
		MaxElapsedTime: c.Retries.MaxElapsedTime.Duration,
	}
}

// HistoryConfig converts the [history] section.
func (c *Config) HistoryConfig() history.Config {
	return history.Config{
		Enabled:       c.History.Enabled,
		DBPath:        c.History.Path,
		BatchSize:     c.History.BatchSize,
		FlushInterval: c.History.FlushInterval.Duration,
	}
}
