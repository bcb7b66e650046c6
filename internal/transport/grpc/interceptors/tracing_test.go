package interceptors

import (
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/stats"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTracingInterceptorBuildsStatsHandler(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	ti := NewTracingInterceptor(TracingOptions{TracerProvider: tp})

	if ti.Handler() == nil {
		t.Fatal("expected stats handler")
	}
	if _, ok := ti.ServerOption().(grpc.EmptyServerOption); ok {
		t.Fatal("expected a stats handler server option")
	}
}

func TestNilTracingInterceptorIsNoop(t *testing.T) {
	var ti *TracingInterceptor

	if _, ok := ti.ServerOption().(grpc.EmptyServerOption); !ok {
		t.Fatal("expected empty server option for nil interceptor")
	}
	var h stats.Handler = ti.Handler()
	if h != nil {
		t.Fatal("expected nil handler")
	}
}
