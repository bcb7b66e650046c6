package usecase

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	// ErrDuplicateActiveAccount indicates an active account already owns the email.
	ErrDuplicateActiveAccount = errors.New("an account with this email already exists")
	// ErrInvalidCredentials covers unknown email, wrong password and inactive accounts alike.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrInvalidOrExpiredToken indicates an activation or reset link that cannot be used.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired link")
	// ErrTokenStale marks a well-signed token whose account state has since moved on.
	// It is always wrapped together with ErrInvalidOrExpiredToken.
	ErrTokenStale = errors.New("token superseded by account state")
	// ErrPasswordMismatch indicates the password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidCurrentPassword indicates the caller's current password is wrong.
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	// ErrAccountNotFound indicates no account exists for the supplied identifier.
	ErrAccountNotFound = errors.New("account does not exist")
	// ErrReconciliationFailure indicates the guest cart could not be merged and was rolled back.
	ErrReconciliationFailure = errors.New("cart reconciliation failed")
	// ErrWeakPassword indicates the new password fails the password policy.
	ErrWeakPassword = errors.New("password does not meet the password policy")
	// ErrInvalidInput indicates request fields failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited indicates the caller exceeded a request budget.
	ErrRateLimited = errors.New("too many requests")
	// ErrInvalidSocialLogin indicates the provider payload cannot identify a person.
	ErrInvalidSocialLogin = errors.New("invalid social login")
	// ErrForbidden indicates the principal may not access the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnsafeRedirect indicates a post-login target outside this site.
	ErrUnsafeRedirect = errors.New("unsafe redirect target")
	// ErrSessionNotFound indicates the login session is missing or expired.
	ErrSessionNotFound = errors.New("session not found or expired")
	// ErrCartItemNotFound indicates the line item is not in the caller's cart.
	ErrCartItemNotFound = errors.New("cart item not found")
)

// ValidationError carries per-field validation failures and matches ErrInvalidInput.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k].Error())
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// FieldMessages flattens the field errors for API responses.
func (e *ValidationError) FieldMessages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		out[k] = v.Error()
	}
	return out
}

// asValidationError converts an ozzo validation result into a ValidationError.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}
