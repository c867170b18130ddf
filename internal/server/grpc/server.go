// Package grpc serves the standard grpc.health.v1 health service. Serving
// status follows a readiness probe (normally a database ping).
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophjokes/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "gophjokes"

// Probe reports whether the server can do useful work.
type Probe func(ctx context.Context) error

type HealthServer struct {
	address  string
	logger   logging.Logger
	probe    Probe
	interval time.Duration
	health   *health.Server
}

// NewHealthServer returns a server listening on address. A nil probe means
// always serving.
func NewHealthServer(address string, l logging.Logger, probe Probe, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthServer{
		address:  address,
		logger:   l.With("module", "grpc_health"),
		probe:    probe,
		interval: interval,
		health:   health.NewServer(),
	}
}

func (s *HealthServer) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// check runs the probe once and publishes the result.
func (s *HealthServer) check(ctx context.Context) {
	if s.probe == nil {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if err := s.probe(ctx); err != nil {
		s.logger.Warn(ctx, "readiness probe failed", "error", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

func (s *HealthServer) watch(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.check(ctx)
		}
	}
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.check(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
