package domain

import (
	"strings"
	"time"
)

// AuthSourceKind enumerates how an account proves its identity.
type AuthSourceKind string

const (
	AuthSourcePassword AuthSourceKind = "password"
	AuthSourceSocial   AuthSourceKind = "social"
)

// AuthSource is resolved once at account creation. Provider is set only for social accounts.
type AuthSource struct {
	Kind     AuthSourceKind
	Provider string
}

// PasswordSource returns the auth source for self-registered accounts.
func PasswordSource() AuthSource {
	return AuthSource{Kind: AuthSourcePassword}
}

// SocialSource returns the auth source for accounts created through a third-party provider.
func SocialSource(provider string) AuthSource {
	return AuthSource{Kind: AuthSourceSocial, Provider: strings.ToLower(strings.TrimSpace(provider))}
}

// IsSocial reports whether the account was created by a social sign-in.
func (s AuthSource) IsSocial() bool {
	return s.Kind == AuthSourceSocial
}

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	AuthSource   AuthSource
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// HasPassword reports whether the account can authenticate with a local password.
func (a Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// DefaultProfilePicture is assigned to profiles that never uploaded an image.
const DefaultProfilePicture = "default/default_user.png"

// Profile holds the customer-facing details owned 1:1 by an Account.
type Profile struct {
	AccountID      string
	FirstName      string
	LastName       string
	MobileNumber   string
	AddressLine1   string
	AddressLine2   string
	City           string
	State          string
	Country        string
	ProfilePicture string
	UpdatedAt      time.Time
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// SocialIdentity links a (provider, provider user id) pair to exactly one account.
type SocialIdentity struct {
	ID             string
	AccountID      string
	Provider       string
	ProviderUserID string
	Email          string
	CreatedAt      time.Time
}

// NormalizeEmail trims and lower-cases an address so that uniqueness holds case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameFromEmail derives a username from the local part of an address.
func UsernameFromEmail(email string) string {
	local, _, found := strings.Cut(NormalizeEmail(email), "@")
	if !found {
		return NormalizeEmail(email)
	}
	return local
}
