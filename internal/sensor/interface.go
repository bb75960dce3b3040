package sensor

import (
	"context"
	"time"
)

// Sampler reads host metrics. Sampling CPULoad blocks for interval to
// measure the load over it; other metrics ignore interval.
type Sampler interface {
	Sample(ctx context.Context, m Metric, interval time.Duration) (Reading, error)
}
