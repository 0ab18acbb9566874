package grpc

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/AllanBUSI/Fairpay-sub000/internal/config"
	"github.com/AllanBUSI/Fairpay-sub000/pkg/logger"
)

// Server exposes the standard gRPC health service for orchestrators
type Server struct {
	config *config.Config
	logger *zap.Logger
	server *grpc.Server
	health *health.Server
}

func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(log)),
		grpc.ChainStreamInterceptor(logger.NewGrpcStreamServerInterceptor(log)),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(cfg.Service.Name, healthpb.HealthCheckResponse_SERVING)

	if cfg.Service.Environment != "production" {
		reflection.Register(server)
	}

	return &Server{
		config: cfg,
		logger: log,
		server: server,
		health: healthServer,
	}
}

func (s *Server) Start() error {
	addr := s.config.Server.GRPC.Addr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(listener)
}

// Serve runs the server on an existing listener
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("Starting gRPC server", zap.String("address", listener.Addr().String()))
	return s.server.Serve(listener)
}

// Shutdown reports NOT_SERVING, then drains in-flight calls
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
