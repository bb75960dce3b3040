package logger

import (
	"os"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/vupdated/internal/errors"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var log = zerolog.Nop()

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Init initializes the logger based on the given configuration
func Init(level string, isService bool) error {
	errFactory := errors.New()

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return errFactory.WithData(errors.ErrInvalidLogLevel, level)
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ any) string {
			return ""
		}
	}

	log = zerolog.New(output).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(lvl)

	return nil
}

// SetOutput replaces the global logger with a JSON logger writing to w at
// debug level.
func SetOutput(w zerolog.LevelWriter) {
	log = zerolog.New(w).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// ErrorWithCode logs an error message carrying the code of err, if any
func ErrorWithCode(err error) *LogEvent {
	ev := log.Error().Err(err)
	if code, ok := errors.CodeOf(err); ok {
		ev = ev.Str("error_code", string(code))
	}

	return &LogEvent{ev}
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// With returns a logger tagged with the given component name.
func With(component string) Logger {
	return &componentLogger{zl: log.With().Str("component", component).Logger()}
}

type componentLogger struct {
	zl zerolog.Logger
}

func (l *componentLogger) Debug() *LogEvent {
	return &LogEvent{l.zl.Debug()}
}

func (l *componentLogger) Info() *LogEvent {
	return &LogEvent{l.zl.Info()}
}

func (l *componentLogger) Warn() *LogEvent {
	return &LogEvent{l.zl.Warn()}
}

func (l *componentLogger) Error() *LogEvent {
	return &LogEvent{l.zl.Error()}
}

func (l *componentLogger) With(key, value string) Logger {
	return &componentLogger{zl: l.zl.With().Str(key, value).Logger()}
}
