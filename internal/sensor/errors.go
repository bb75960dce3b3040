package sensor

import "codeberg.org/mutker/vupdated/internal/errors"

// Package-specific error codes
const (
	ErrUnknownMetric = errors.ErrorCode("sensor_unknown_metric")
	ErrReadFailed    = errors.ErrorCode("sensor_read_failed")
	ErrNoSensor      = errors.ErrorCode("sensor_not_found")
)
