package domain

import "strings"

// DegradationPolicyMode enumerates how login reacts when a secondary step fails.
type DegradationPolicyMode string

const (
	// DegradationPolicyModeLenient lets login succeed and reports the failure alongside the result.
	DegradationPolicyModeLenient DegradationPolicyMode = "lenient"
	// DegradationPolicyModeStrict fails the login when the secondary step fails.
	DegradationPolicyModeStrict DegradationPolicyMode = "strict"
)

// DegradationReason captures the step whose failure is being evaluated.
type DegradationReason string

const (
	// DegradationReasonCartReconciliation denotes the guest cart could not be merged at login.
	DegradationReasonCartReconciliation DegradationReason = "cart_reconciliation"
	// DegradationReasonLastLoginUpdate denotes the last-login timestamp could not be recorded.
	DegradationReasonLastLoginUpdate DegradationReason = "last_login_update"
)

// DegradationPolicy centralises how login responds to partial failures.
type DegradationPolicy struct {
	mode DegradationPolicyMode
}

// NewDegradationPolicy constructs a policy with the provided mode, defaulting to lenient when unspecified.
func NewDegradationPolicy(mode DegradationPolicyMode) DegradationPolicy {
	if mode != DegradationPolicyModeStrict {
		mode = DegradationPolicyModeLenient
	}
	return DegradationPolicy{mode: mode}
}

// ParseDegradationPolicyMode normalises textual input into a supported policy mode.
func ParseDegradationPolicyMode(value string) DegradationPolicyMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(DegradationPolicyModeStrict):
		return DegradationPolicyModeStrict
	default:
		return DegradationPolicyModeLenient
	}
}

// Mode returns the underlying policy mode.
func (p DegradationPolicy) Mode() DegradationPolicyMode {
	return p.mode
}

// IsStrict indicates whether the policy rejects degraded states.
func (p DegradationPolicy) IsStrict() bool {
	return p.mode == DegradationPolicyModeStrict
}

// AllowsFallback determines if login may continue after the supplied step failed.
// Last-login bookkeeping never blocks a login.
func (p DegradationPolicy) AllowsFallback(reason DegradationReason) bool {
	if reason == DegradationReasonLastLoginUpdate {
		return true
	}
	return !p.IsStrict()
}
