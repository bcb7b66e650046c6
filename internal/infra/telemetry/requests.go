package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront surfaces a request can belong to.
const (
	SurfaceIdentity = "identity"
	SurfaceCart     = "cart"
	SurfaceOps      = "ops"
	SurfaceOther    = "other"
)

// Result classes shared by the HTTP and gRPC transports.
const (
	ResultOK          = "ok"
	ResultRejected    = "rejected"
	ResultDenied      = "denied"
	ResultRateLimited = "rate_limited"
	ResultError       = "error"
)

// RequestMetrics counts and times inbound calls of one transport, keyed by storefront surface.
type RequestMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	InFlight *prometheus.GaugeVec
}

// NewRequestMetrics registers gkart_<transport>_* collectors with reg.
func NewRequestMetrics(reg prometheus.Registerer, transport string, buckets []float64) (*RequestMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if transport == "" {
		return nil, fmt.Errorf("transport name is required")
	}
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	m := &RequestMetrics{}
	var err error

	if m.Requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: transport,
		Name:      "requests_total",
		Help:      "Inbound requests partitioned by surface, operation and result.",
	}, []string{"surface", "operation", "result"})); err != nil {
		return nil, err
	}

	if m.Duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: transport,
		Name:      "request_duration_seconds",
		Help:      "Inbound request latency partitioned by surface and operation.",
		Buckets:   buckets,
	}, []string{"surface", "operation"})); err != nil {
		return nil, err
	}

	if m.InFlight, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: transport,
		Name:      "in_flight_requests",
		Help:      "Requests currently being served, per surface.",
	}, []string{"surface"})); err != nil {
		return nil, err
	}

	return m, nil
}

// Start marks a request on surface as in flight. The returned func records its
// operation and result and must be called exactly once.
func (m *RequestMetrics) Start(surface string) func(operation, result string) {
	if m == nil {
		return func(string, string) {}
	}
	start := time.Now()
	gauge := m.InFlight.WithLabelValues(surface)
	gauge.Inc()

	return func(operation, result string) {
		gauge.Dec()
		m.Requests.WithLabelValues(surface, operation, result).Inc()
		m.Duration.WithLabelValues(surface, operation).Observe(time.Since(start).Seconds())
	}
}

// register adds c to reg, or returns the collector registered earlier under the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}
