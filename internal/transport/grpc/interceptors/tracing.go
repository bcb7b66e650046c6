package interceptors

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/stats"
)

// TracingOptions customises the tracing handler behaviour.
type TracingOptions struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	Additional     []otelgrpc.Option
}

// TracingInterceptor wraps the OpenTelemetry stats handler for gRPC server traffic.
type TracingInterceptor struct {
	handler stats.Handler
}

// NewTracingInterceptor builds the server stats handler with the supplied options.
func NewTracingInterceptor(opts TracingOptions) *TracingInterceptor {
	options := make([]otelgrpc.Option, 0, len(opts.Additional)+2)
	if opts.TracerProvider != nil {
		options = append(options, otelgrpc.WithTracerProvider(opts.TracerProvider))
	}
	if opts.Propagators != nil {
		options = append(options, otelgrpc.WithPropagators(opts.Propagators))
	}
	options = append(options, opts.Additional...)

	return &TracingInterceptor{handler: otelgrpc.NewServerHandler(options...)}
}

// Handler returns the underlying stats handler.
func (ti *TracingInterceptor) Handler() stats.Handler {
	if ti == nil {
		return nil
	}
	return ti.handler
}

// ServerOption installs the stats handler on a gRPC server.
func (ti *TracingInterceptor) ServerOption() grpc.ServerOption {
	if ti == nil || ti.handler == nil {
		return grpc.EmptyServerOption{}
	}
	return grpc.StatsHandler(ti.handler)
}
