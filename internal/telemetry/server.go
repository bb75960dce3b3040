package telemetry

import (
	"context"
	"net"
	"net/http"

	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/logger"
)

// Server exposes a Collector over HTTP. It is meant to run under a
// supervisor, which restarts it if the listener fails.
type Server struct {
	cfg       Config
	collector Collector
	log       logger.Logger
}

var _ Service = (*Server)(nil)

func NewServer(cfg Config, collector Collector) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	return &Server{
		cfg:       cfg,
		collector: collector,
		log:       logger.With("telemetry"),
	}
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	errFactory := errors.New()

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return errFactory.Wrapf(ErrListen, err, "failed to listen on %s", s.cfg.Listen)
	}

	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	errFactory := errors.New()

	mux := http.NewServeMux()
	mux.Handle(metricsPath, s.collector.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")

	select {
	case err := <-errCh:
		if err != nil {
			return errFactory.Wrap(ErrServe, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errFactory.Wrap(ErrServerShutdown, err)
		}
		<-errCh

		return ctx.Err()
	}
}

func (*Server) String() string {
	return "telemetry-server"
}
