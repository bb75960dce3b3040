package config

import (
	"codeberg.org/mutker/vupdated/internal/sensor"
	"codeberg.org/mutker/vupdated/internal/vu"
)

// Generate builds a config assigning metrics, in order, to the given dials.
// Extra metrics are dropped; the caller warns about them. The current easing
// of each dial is kept.
func Generate(dials []vu.Status, metrics []sensor.Metric) *Config {
	cfg := Default()

	for i, metric := range metrics {
		if i >= len(dials) {
			break
		}
		status := dials[i]
		dialEasing := currentEasing(status.Easing.DialPeriod, status.Easing.DialStep)
		backlightEasing := currentEasing(status.Easing.BacklightPeriod, status.Easing.BacklightStep)

		cfg.Dials[metric.DisplayName()] = DialConfig{
			Index:           status.Index,
			Metric:          metric.String(),
			UpdateInterval:  Duration{DefaultUpdateInterval},
			DialEasing:      dialEasing,
			BacklightEasing: backlightEasing,
		}
	}

	return cfg
}

func currentEasing(periodMs, step int) *EasingConfig {
	if _, err := vu.NewEasing(periodMs, step); err != nil {
		return nil
	}

	return &EasingConfig{PeriodMs: periodMs, Step: step}
}
