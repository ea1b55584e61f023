// Package grpc exposes the standard gRPC health service next to the HTTP API.
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// DefaultHealthInterval is how often dependency checks refresh the serving status.
const DefaultHealthInterval = 10 * time.Second

// CheckFunc reports whether one dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Server is the gRPC server with its health service.
type Server struct {
	server *grpc.Server
	health *health.Server
	checks map[string]CheckFunc
	addr   string
	logger logger.Logger
}

// NewServer creates the gRPC server. The overall and per-service status start as NOT_SERVING
// until the first round of checks passes.
func NewServer(cfg *config.ServerConfig, checks map[string]CheckFunc, limiter service.RateLimitService, log logger.Logger) *Server {
	log = log.WithComponent("grpc")
	chain := NewInterceptorChain(log, limiter)

	s := &Server{
		server: grpc.NewServer(chain.ChainUnaryInterceptors()),
		health: health.NewServer(),
		checks: checks,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.GRPCPort),
		logger: log,
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(constants.ServiceName, st)
}

// Refresh runs every check once and publishes the resulting status.
func (s *Server) Refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn(ctx, "Dependency check failed", logger.String("dependency", name), logger.Error(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(st)
}

// WatchHealth refreshes the serving status every interval until ctx is done.
func (s *Server) WatchHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		s.Refresh(checkCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info(context.Background(), "Starting gRPC server", logger.String("address", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Start listens on the configured gRPC port and serves.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Stop marks the service as not serving and drains in-flight calls until ctx expires.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
}
