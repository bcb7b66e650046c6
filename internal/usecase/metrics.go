package usecase

// IdentityMetrics captures telemetry hooks for the account and cart flows.
type IdentityMetrics interface {
	IncRegistration(outcome string)
	IncActivation(outcome string)
	IncLogin(method, outcome string)
	ObserveReconciliation(merged, reassigned int)
	IncReconciliationFailure()
	IncNotification(template, outcome string)
}

type noopMetrics struct{}

func (noopMetrics) IncRegistration(string)         {}
func (noopMetrics) IncActivation(string)           {}
func (noopMetrics) IncLogin(string, string)        {}
func (noopMetrics) ObserveReconciliation(int, int) {}
func (noopMetrics) IncReconciliationFailure()      {}
func (noopMetrics) IncNotification(string, string) {}

func metricsOrNoop(m IdentityMetrics) IdentityMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
