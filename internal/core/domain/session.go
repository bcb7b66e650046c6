package domain

import "time"

// Session represents an authenticated login session kept in the session store.
// Expiry slides forward on every authenticated request.
type Session struct {
	ID         string
	AccountID  string
	IP         string
	UserAgent  string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// IsActive reports whether the session has not expired at the supplied moment.
func (s Session) IsActive(at time.Time) bool {
	return s.ExpiresAt.After(at)
}

// Touch slides the session window forward.
func (s *Session) Touch(at time.Time, ttl time.Duration) {
	s.LastSeenAt = at
	s.ExpiresAt = at.Add(ttl)
}

// ResetSession is the short-lived capability granted after a reset token was verified.
type ResetSession struct {
	ID        string
	AccountID string
	// Fingerprint is the account state the reset link was issued against.
	Fingerprint string
	ExpiresAt   time.Time
}

// Principal is the authenticated caller of a request.
type Principal struct {
	AccountID   string
	Email       string
	IsStaff     bool
	IsSuperuser bool
}

// PrincipalFromAccount builds a principal snapshot from the stored account.
func PrincipalFromAccount(account Account) Principal {
	return Principal{
		AccountID:   account.ID,
		Email:       account.Email,
		IsStaff:     account.IsStaff,
		IsSuperuser: account.IsSuperuser,
	}
}

// RequestContext carries per-request session state into the core explicitly.
type RequestContext struct {
	RequestID string
	// SessionKey identifies the anonymous browser session that owns the guest cart.
	SessionKey string
	// SessionID is the login session, empty for anonymous callers.
	SessionID string
	Principal *Principal
	ClientIP  string
	UserAgent string
}

// IsAuthenticated reports whether a principal is attached.
func (r RequestContext) IsAuthenticated() bool {
	return r.Principal != nil && r.Principal.AccountID != ""
}
