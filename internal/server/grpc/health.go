// Package grpcserver exposes the gRPC health endpoint of the shopping-list service.
package grpcserver

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name answered besides the empty (server-wide) one.
const ServiceName = "shoplist.v1.Items"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer answers grpc.health.v1.Health/Check on demand from the store.
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	store Pinger
	log   *zap.Logger
}

// NewHealth constructs a health server backed by store.
func NewHealth(store Pinger, log *zap.Logger) *HealthServer {
	return &HealthServer{store: store, log: log}
}

// Check pings the store; a failure reports NOT_SERVING rather than an RPC error.
func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	switch req.GetService() {
	case "", ServiceName:
	default:
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}

	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health check", zap.Error(err), zap.String("request_id", RequestIDFrom(ctx)))
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// New builds a grpc.Server with the interceptor chain and the health service registered.
func New(store Pinger, log *zap.Logger) *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoverUnary(log),
		RequestIDUnary,
		LoggingUnary(log),
	))
	healthpb.RegisterHealthServer(srv, NewHealth(store, log))
	return srv
}
