package dial

import "codeberg.org/mutker/vupdated/internal/errors"

// Package-specific error codes
const (
	ErrConfigure      = errors.ErrorCode("dial_configure_failed")
	ErrSetValue       = errors.ErrorCode("dial_set_value_failed")
	ErrInvalidReading = errors.ErrorCode("dial_invalid_reading")
	ErrSensorStreak   = errors.ErrorCode("dial_sensor_failures")
	ErrResume         = errors.ErrorCode("dial_resume_failed")
)
