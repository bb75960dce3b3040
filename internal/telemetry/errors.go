package telemetry

import "codeberg.org/mutker/vupdated/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig

	// Server Errors
	ErrListen         = errors.ErrorCode("telemetry_listen_failed")
	ErrServe          = errors.ErrorCode("telemetry_serve_failed")
	ErrServerShutdown = errors.ErrShutdownFailed
)
