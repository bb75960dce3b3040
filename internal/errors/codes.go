package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnsupported     ErrorCode = "unsupported_platform"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrMissingConfig   ErrorCode = "missing_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrWriteConfig     ErrorCode = "write_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Application errors
	ErrInitApp     ErrorCode = "init_app_failed"
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrNoDials     ErrorCode = "no_dials_connected"
	ErrSpawnDials  ErrorCode = "spawn_dial_managers_failed"
	ErrDialFailed  ErrorCode = "dial_manager_failed"
	ErrDialPanic   ErrorCode = "dial_manager_panicked"
	ErrReload      ErrorCode = "reload_failed"
	ErrMultiple    ErrorCode = "multiple_errors"
	ErrGenerate    ErrorCode = "generate_config_failed"
	ErrListDials   ErrorCode = "list_dials_failed"
	ErrSelectDial  ErrorCode = "select_dial_failed"
	ErrSetDial     ErrorCode = "set_dial_failed"
	ErrDialStatus  ErrorCode = "dial_status_failed"
	ErrHotplug     ErrorCode = "hotplug_failed"

	// Operation errors
	ErrTimeout ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrUnsupported:     "Not supported on this platform",
	ErrInvalidConfig:   "Invalid configuration",
	ErrMissingConfig:   "Missing configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read configuration",
	ErrWriteConfig:     "Failed to write configuration",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidLogLevel: "Invalid log level",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrInitApp:         "Failed to initialize application",
	ErrMainLoop:        "Error in main loop",
	ErrNoDials:         "No dials are connected",
	ErrSpawnDials:      "Failed to spawn dial managers",
	ErrDialFailed:      "A dial manager failed",
	ErrDialPanic:       "A dial manager panicked",
	ErrReload:          "Failed to reload configuration",
	ErrMultiple:        "Multiple errors occurred",
	ErrGenerate:        "Failed to generate configuration",
	ErrListDials:       "Failed to list dials",
	ErrSelectDial:      "Failed to select dial",
	ErrSetDial:         "Failed to update dial",
	ErrDialStatus:      "Failed to get dial status",
	ErrHotplug:         "Hotplug watcher failed",
	ErrTimeout:         "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
