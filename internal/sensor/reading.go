package sensor

import (
	"fmt"
	"math"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/vu"
)

// Reading is a raw sample, before conversion to a dial value. Usage metrics
// carry free and total amounts; level metrics carry the value directly.
type Reading struct {
	Metric Metric
	Free   float64
	Total  float64
	Level  float64
	usage  bool
}

// Usage builds a reading for a capacity metric.
func Usage(m Metric, free, total float64) Reading {
	return Reading{Metric: m, Free: free, Total: total, usage: true}
}

// Level builds a reading for a metric that is already a percentage-like
// number, such as a temperature or a battery charge.
func Level(m Metric, value float64) Reading {
	return Reading{Metric: m, Level: value}
}

// Percent converts r into a dial value. Usage readings are reported as the
// used share, 100 - floor(free*100/total), and read as 0% when total is
// zero. Level readings are truncated. Anything outside [0, 100] is a
// validation error.
func (r Reading) Percent() (vu.Percent, error) {
	if r.usage {
		if r.Total <= 0 {
			return vu.NewPercent(0)
		}
		freePct := math.Floor(r.Free * 100 / r.Total)
		return vu.NewPercent(100 - int(freePct))
	}

	if math.IsNaN(r.Level) || math.IsInf(r.Level, 0) {
		return vu.Percent{}, errors.New().WithMessage(vu.ErrInvalidValue,
			fmt.Sprintf("invalid %s reading %v", r.Metric, r.Level))
	}

	return vu.NewPercent(int(r.Level))
}

func (r Reading) String() string {
	if r.usage {
		return fmt.Sprintf("%s: %.0f/%.0f free", r.Metric, r.Free, r.Total)
	}

	return fmt.Sprintf("%s: %.1f", r.Metric, r.Level)
}
