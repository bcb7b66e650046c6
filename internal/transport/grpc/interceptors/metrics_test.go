package interceptors

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Surajgupta63/GKart/internal/infra/telemetry"
)

func newGRPCRequestMetrics(t *testing.T) *telemetry.RequestMetrics {
	t.Helper()
	metrics, err := telemetry.NewRequestMetrics(prometheus.NewRegistry(), "grpc", nil)
	if err != nil {
		t.Fatalf("NewRequestMetrics returned error: %v", err)
	}
	return metrics
}

func TestUnaryMetricsRecordsSessionValidation(t *testing.T) {
	metrics := newGRPCRequestMetrics(t)
	interceptor := UnaryMetrics(metrics)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/gkart.identity.v1.SessionService/Validate"}

	if _, err := interceptor(context.Background(), struct{}{}, info, handler); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues(telemetry.SurfaceIdentity, "Validate", telemetry.ResultOK)); got != 1 {
		t.Fatalf("expected request counter 1, got %f", got)
	}
	if inflight := testutil.ToFloat64(metrics.InFlight.WithLabelValues(telemetry.SurfaceIdentity)); inflight != 0 {
		t.Fatalf("expected in-flight gauge 0, got %f", inflight)
	}
	if samples := testutil.CollectAndCount(metrics.Duration); samples == 0 {
		t.Fatalf("expected histogram to record observations")
	}
}

func TestUnaryMetricsClassifiesFailures(t *testing.T) {
	metrics := newGRPCRequestMetrics(t)
	interceptor := UnaryMetrics(metrics)

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unavailable, "session store down")
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	if _, err := interceptor(context.Background(), struct{}{}, info, handler); status.Code(err) != codes.Unavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues(telemetry.SurfaceOps, "Check", telemetry.ResultError)); got != 1 {
		t.Fatalf("expected request counter 1 for failed call, got %f", got)
	}
}

func TestUnaryMetricsNilCollector(t *testing.T) {
	interceptor := UnaryMetrics(nil)
	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/y"}, func(context.Context, interface{}) (interface{}, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("expected pass-through, got %v %v", resp, err)
	}
}

func TestSplitFullMethod(t *testing.T) {
	cases := []struct{ in, service, method string }{
		{"/gkart.identity.v1.SessionService/Validate", "gkart.identity.v1.SessionService", "Validate"},
		{"", "unknown", "unknown"},
		{"/broken", "unknown", "unknown"},
	}
	for _, tc := range cases {
		service, method := splitFullMethod(tc.in)
		if service != tc.service || method != tc.method {
			t.Fatalf("splitFullMethod(%q) = %q, %q", tc.in, service, method)
		}
	}
}
