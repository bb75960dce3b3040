package history

import (
	"context"
	"time"
)

// Recorder stores the values pushed to dials.
type Recorder interface {
	Record(ctx context.Context, sample Sample) error
	// Latest returns the most recent sample of every dial, keyed by dial
	// name.
	Latest(ctx context.Context) (map[string]Sample, error)
	Close() error
}

// Repository is the storage behind a Recorder.
type Repository interface {
	Record(sample Sample) error
	Latest(ctx context.Context) (map[string]Sample, error)
	Close() error
}

// Sample is one value shown on one dial.
type Sample struct {
	Timestamp time.Time
	Dial      string
	Metric    string
	Value     int
}
