package transportgrpc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Surajgupta63/GKart/internal/infra/telemetry"
	grpcinterceptors "github.com/Surajgupta63/GKart/internal/transport/grpc/interceptors"
)

const defaultHealthInterval = 15 * time.Second

// HealthCheck probes one dependency for the gRPC health service.
type HealthCheck func(ctx context.Context) error

// ServerDependencies encapsulates services required by the gRPC server layer.
type ServerDependencies struct {
	Sessions     SessionAuthenticator
	Logger       *zap.Logger
	Metrics      *telemetry.RequestMetrics
	Tracing      *grpcinterceptors.TracingInterceptor
	HealthChecks map[string]HealthCheck
}

// Server bundles the gRPC server with its health reporter.
type Server struct {
	*grpc.Server
	health *health.Server
	checks map[string]HealthCheck
	logger *zap.Logger
}

// NewServer wires the session service, health and reflection behind the interceptor chain.
func NewServer(deps ServerDependencies) (*Server, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session authenticator is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	unaryInterceptors := []grpc.UnaryServerInterceptor{
		grpcinterceptors.NewLoggingInterceptor(logger).Unary(),
		grpcinterceptors.UnaryMetrics(deps.Metrics),
	}

	options := []grpc.ServerOption{grpc.ChainUnaryInterceptor(unaryInterceptors...)}
	if deps.Tracing != nil {
		options = append(options, deps.Tracing.ServerOption())
	}

	server := grpc.NewServer(options...)

	RegisterSessionServer(server, NewSessionServer(deps.Sessions, logger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	// Register reflection service for tools like grpcurl.
	reflection.Register(server)

	return &Server{
		Server: server,
		health: healthServer,
		checks: deps.HealthChecks,
		logger: logger,
	}, nil
}

// WatchHealth refreshes the serving status until ctx is done.
func (s *Server) WatchHealth(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultHealthInterval
	}

	s.refreshHealth(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.refreshHealth(ctx)
		}
	}
}

func (s *Server) refreshHealth(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check(checkCtx)
		cancel()
		if err != nil {
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("grpc health check failed", zap.String("check", name), zap.Error(err))
		}
	}
	s.health.SetServingStatus("", overall)
	s.health.SetServingStatus(SessionServiceName, overall)
}
