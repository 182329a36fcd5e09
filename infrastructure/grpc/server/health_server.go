package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes can ask about besides the overall "" service.
const ServiceName = "direct-chat"

// HealthServer exposes the standard grpc.health.v1 service for orchestrator probes.
type HealthServer struct {
	log     *slog.Logger
	address string
	health  *health.Server
}

func NewHealthServer(log *slog.Logger, host string, port int) *HealthServer {
	return &HealthServer{
		log:     log,
		address: fmt.Sprintf("%s:%d", host, port),
		health:  health.NewServer(),
	}
}

// Run serves SERVING until ctx is canceled, then flips to NOT_SERVING
// before stopping so probes see the shutdown.
func (s *HealthServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting gRPC health server", "address", s.address, "at", time.Now().UTC())
		if err := grpcServer.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down gRPC health server...")
	case err := <-errChan:
		return err
	}

	s.health.Shutdown()
	grpcServer.GracefulStop()
	return nil
}
