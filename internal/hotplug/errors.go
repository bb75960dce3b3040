package hotplug

import "codeberg.org/mutker/vupdated/internal/errors"

// Package-specific error codes
const (
	ErrConnect = errors.ErrorCode("hotplug_connect_failed")
	ErrRestart = errors.ErrorCode("hotplug_restart_failed")
)
