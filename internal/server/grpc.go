package server

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/auth"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer serves the standard health service and reflection. The health server is
// returned so shutdown can flip it to NOT_SERVING before draining.
func NewGRPCServer(log logger.ZapLogger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			ContextInterceptor(),
			LoggingInterceptor(log),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return srv, hs
}

// ContextInterceptor lifts the caller identity out of incoming metadata.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if u, ok := auth.FromContext(ctx); ok {
			ctx = auth.WithUser(ctx, u)
		}
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs each call and converts domain errors to status errors.
func LoggingInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			st := apperror.ToStatus(err)
			log.Warn("grpc call failed",
				zap.String("method", info.FullMethod),
				zap.String("code", st.Code().String()),
				zap.Duration("latency", time.Since(start)),
				zap.Error(err),
			)
			return resp, st.Err()
		}
		log.Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, nil
	}
}
