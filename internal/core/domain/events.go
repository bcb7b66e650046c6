package domain

import "time"

// AccountRegisteredEvent represents the payload for gkart.account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Username     string
	Email        string
	AuthSource   AuthSource
	RegisteredAt time.Time
	// Reissued is true when a pending account re-registered and only received a fresh token.
	Reissued bool
	Metadata map[string]any
}

// AccountActivatedEvent represents the payload for gkart.account.activated messages.
type AccountActivatedEvent struct {
	EventID     string
	AccountID   string
	ActivatedAt time.Time
	Via         string
	Metadata    map[string]any
}

// PasswordChangedEvent represents the payload for gkart.password.changed messages.
type PasswordChangedEvent struct {
	EventID         string
	AccountID       string
	ChangedAt       time.Time
	ChangedBy       string
	SessionsRevoked int
	Metadata        map[string]any
}

// PasswordResetRequestedEvent represents the payload for gkart.password.reset_requested messages.
type PasswordResetRequestedEvent struct {
	EventID           string
	AccountID         string
	RequestedAt       time.Time
	MaskedDestination string
	IPAddress         string
	ExpiresAt         time.Time
	Metadata          map[string]any
}

// CartReconciledEvent represents the payload for gkart.cart.reconciled messages.
type CartReconciledEvent struct {
	EventID      string
	AccountID    string
	SessionKey   string
	Merged       int
	Reassigned   int
	ReconciledAt time.Time
	Metadata     map[string]any
}

// Notification templates understood by the notifier.
const (
	TemplateAccountActivation = "account_activation"
	TemplatePasswordReset     = "password_reset"
)

// Notification is a message handed to the notifier collaborator.
type Notification struct {
	ID       string
	To       string
	Template string
	Context  map[string]string
	QueuedAt time.Time
}
