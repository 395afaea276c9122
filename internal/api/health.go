package api

import (
	"context"
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PipelineService is the health service name reported for the frame
// pipeline. The empty name covers the whole process.
const PipelineService = "pathsense.Pipeline"

// Health wraps the standard gRPC health service.
type Health struct {
	srv *health.Server
}

// NewHealth starts in NOT_SERVING until the pipeline is up.
func NewHealth() *Health {
	h := &Health{srv: health.NewServer()}
	h.SetServing(false)
	return h
}

// SetServing flips the process and pipeline status together.
func (h *Health) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(PipelineService, status)
}

// Register attaches the health service to s.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// ServeGRPC serves the health service on lis until ctx is done, then
// marks everything NOT_SERVING and stops gracefully.
func ServeGRPC(ctx context.Context, lis net.Listener, h *Health) error {
	s := grpc.NewServer()
	h.Register(s)

	errc := make(chan error, 1)
	go func() {
		log.Printf("[api] gRPC health listening on %s", lis.Addr())
		errc <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		h.srv.Shutdown()
		s.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	}
}
