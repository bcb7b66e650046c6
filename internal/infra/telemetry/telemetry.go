package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gkart"

// Metrics holds the domain counters exported on /metrics.
type Metrics struct {
	Registrations          *prometheus.CounterVec
	Activations            *prometheus.CounterVec
	Logins                 *prometheus.CounterVec
	Reconciliations        *prometheus.CounterVec
	ReconciledItems        *prometheus.CounterVec
	ReconciliationFailures prometheus.Counter
	Notifications          *prometheus.CounterVec
}

// NewMetrics registers the domain collectors with reg, reusing collectors that are already registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{}
	var err error

	if m.Registrations, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_registrations_total",
		Help:      "Registrations partitioned by outcome (created, reissued).",
	}, "outcome"); err != nil {
		return nil, err
	}

	if m.Activations, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_activations_total",
		Help:      "Activation attempts partitioned by outcome.",
	}, "outcome"); err != nil {
		return nil, err
	}

	if m.Logins, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts partitioned by method and outcome.",
	}, "method", "outcome"); err != nil {
		return nil, err
	}

	if m.Reconciliations, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_reconciliations_total",
		Help:      "Cart reconciliations partitioned by result (noop, merged).",
	}, "result"); err != nil {
		return nil, err
	}

	if m.ReconciledItems, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_reconciled_items_total",
		Help:      "Anonymous cart items folded into account carts, partitioned by action.",
	}, "action"); err != nil {
		return nil, err
	}

	if m.ReconciliationFailures, err = register[prometheus.Counter](reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_reconciliation_failures_total",
		Help:      "Cart reconciliations that failed and were rolled back.",
	})); err != nil {
		return nil, err
	}

	if m.Notifications, err = registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Notifications handed to the delivery channel partitioned by template and outcome.",
	}, "template", "outcome"); err != nil {
		return nil, err
	}

	return m, nil
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) (*prometheus.CounterVec, error) {
	vec, err := register(reg, prometheus.NewCounterVec(opts, labels))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Name, err)
	}
	return vec, nil
}

func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncActivation(outcome string) {
	if m == nil {
		return
	}
	m.Activations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncLogin(method, outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(method, outcome).Inc()
}

// ObserveReconciliation records a successful reconciliation and the items it moved.
func (m *Metrics) ObserveReconciliation(merged, reassigned int) {
	if m == nil {
		return
	}
	if merged == 0 && reassigned == 0 {
		m.Reconciliations.WithLabelValues("noop").Inc()
		return
	}
	m.Reconciliations.WithLabelValues("merged").Inc()
	m.ReconciledItems.WithLabelValues("merged").Add(float64(merged))
	m.ReconciledItems.WithLabelValues("reassigned").Add(float64(reassigned))
}

func (m *Metrics) IncReconciliationFailure() {
	if m == nil {
		return
	}
	m.ReconciliationFailures.Inc()
}

func (m *Metrics) IncNotification(template, outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(template, outcome).Inc()
}
