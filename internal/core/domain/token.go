package domain

import "time"

// TokenPurpose scopes a signed action token to a single lifecycle transition.
type TokenPurpose string

const (
	TokenPurposeActivation TokenPurpose = "activation"
	TokenPurposeReset      TokenPurpose = "reset"
)

// Valid reports whether the purpose is one the service issues.
func (p TokenPurpose) Valid() bool {
	switch p {
	case TokenPurposeActivation, TokenPurposeReset:
		return true
	default:
		return false
	}
}

// IssuedToken is the result of signing an action token.
type IssuedToken struct {
	Value     string
	AccountID string
	Purpose   TokenPurpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}
