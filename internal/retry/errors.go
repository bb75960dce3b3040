package retry

import "codeberg.org/mutker/vupdated/internal/errors"

// Package-specific error codes
const (
	ErrInvalidPolicy = errors.ErrorCode("retry_invalid_policy")
)
