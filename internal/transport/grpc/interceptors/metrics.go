package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Surajgupta63/GKart/internal/infra/telemetry"
)

// UnaryMetrics records each call under its method and the storefront surface of its service.
func UnaryMetrics(metrics *telemetry.RequestMetrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		service, method := splitFullMethod(info.FullMethod)
		done := metrics.Start(ServiceSurface(service))

		resp, err := handler(ctx, req)

		done(method, CodeResult(status.Code(err)))
		return resp, err
	}
}

// ServiceSurface maps a fully qualified gRPC service name to a storefront surface.
func ServiceSurface(service string) string {
	switch {
	case strings.HasPrefix(service, "gkart.identity."):
		return telemetry.SurfaceIdentity
	case strings.HasPrefix(service, "gkart.cart."):
		return telemetry.SurfaceCart
	case strings.HasPrefix(service, "grpc.health."), strings.HasPrefix(service, "grpc.reflection."):
		return telemetry.SurfaceOps
	default:
		return telemetry.SurfaceOther
	}
}

// CodeResult folds a status code into a result class.
func CodeResult(code codes.Code) string {
	switch code {
	case codes.OK:
		return telemetry.ResultOK
	case codes.Unauthenticated, codes.PermissionDenied:
		return telemetry.ResultDenied
	case codes.ResourceExhausted:
		return telemetry.ResultRateLimited
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists, codes.FailedPrecondition, codes.OutOfRange:
		return telemetry.ResultRejected
	default:
		return telemetry.ResultError
	}
}

func splitFullMethod(full string) (string, string) {
	service, method, ok := strings.Cut(strings.TrimPrefix(full, "/"), "/")
	if !ok || service == "" || method == "" {
		return "unknown", "unknown"
	}
	return service, method
}
