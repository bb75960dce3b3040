package daemon

import "codeberg.org/mutker/vupdated/internal/errors"

// Package-specific error codes
const (
	ErrDiscover = errors.ErrorCode("daemon_discover_failed")
	ErrClient   = errors.ErrorCode("daemon_client_failed")
)
