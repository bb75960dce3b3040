package telemetry

import (
	"context"
	"net/http"
)

// Collector is the daemon-level instrumentation.
type Collector interface {
	Reloaded()
	SetManagers(n int)
	Handler() http.Handler
}

// Service is a long-running component supervised alongside the dials.
type Service interface {
	Serve(ctx context.Context) error
	String() string
}
