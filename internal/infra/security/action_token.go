package security

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	minActionSecretLength = 32
	fingerprintLength     = 22
)

// ErrActionSecretTooShort is returned when the configured HMAC secret is unsafe.
var ErrActionSecretTooShort = errors.New("jwt: action token secret must be at least 32 bytes")

// ActionTokenClaims are carried by activation and reset links.
type ActionTokenClaims struct {
	Purpose     string `json:"pur"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// ActionTokenSigner signs and parses HS256 action tokens.
// Compact JWTs use only URL-safe characters, so the value can be embedded in a link path.
type ActionTokenSigner struct {
	secret []byte
	issuer string
}

// NewActionTokenSigner constructs a signer bound to a secret and issuer.
func NewActionTokenSigner(secret, issuer string) (*ActionTokenSigner, error) {
	if len(secret) < minActionSecretLength {
		return nil, ErrActionSecretTooShort
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, fmt.Errorf("jwt: issuer is required")
	}
	return &ActionTokenSigner{secret: []byte(secret), issuer: issuer}, nil
}

// Issuer returns the issuer stamped on every token.
func (s *ActionTokenSigner) Issuer() string {
	return s.issuer
}

// Sign stamps the issuer and returns the compact token.
func (s *ActionTokenSigner) Sign(claims *ActionTokenClaims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("jwt: action token claims required")
	}
	claims.Issuer = s.issuer

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign action token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, algorithm, issuer and expiry as of at.
func (s *ActionTokenSigner) Parse(token string, at time.Time) (*ActionTokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return at }),
	)

	claims := &ActionTokenClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("jwt: parse action token: %w", err)
	}
	return claims, nil
}

// StateFingerprint digests account state so that a token stops verifying once that state moves on.
func StateFingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:fingerprintLength]
}
