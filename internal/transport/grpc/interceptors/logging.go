package interceptors

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	appLogger "github.com/Surajgupta63/GKart/internal/infra/logger"
)

const requestIDMetadataKey = "x-request-id"

// LoggingInterceptor propagates the caller's request id, logs every call and turns panics into Internal errors.
type LoggingInterceptor struct {
	logger *zap.Logger
}

func NewLoggingInterceptor(logger *zap.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingInterceptor{logger: logger}
}

// Unary returns the unary server interceptor.
func (li *LoggingInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		requestID := requestIDFromMetadata(ctx)
		ctx = appLogger.ContextWithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, requestID))

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				li.logger.Error("grpc handler panicked",
					zap.String("method", info.FullMethod),
					zap.String("request_id", requestID),
					zap.Any("panic", r))
				err = status.Error(codes.Internal, "internal error")
			}

			code := status.Code(err)
			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.String("code", code.String()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", requestID),
			}
			if code == codes.OK || code == codes.InvalidArgument || code == codes.NotFound {
				li.logger.Info("grpc request", fields...)
				return
			}
			li.logger.Warn("grpc request failed", append(fields, zap.Error(err))...)
		}()

		return handler(ctx, req)
	}
}

func requestIDFromMetadata(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDMetadataKey); len(values) > 0 {
			if id := strings.TrimSpace(values[0]); id != "" && len(id) <= 128 {
				return id
			}
		}
	}
	return uuid.NewString()
}
