package telemetry

import (
	"context"
	"net"
)

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	return s.serve(ctx, ln)
}
