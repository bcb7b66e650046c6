package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestActionTokenRoundTrip(t *testing.T) {
	signer, err := NewActionTokenSigner(testSecret, "gkart")
	if err != nil {
		t.Fatalf("NewActionTokenSigner returned error: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	token, err := signer.Sign(&ActionTokenClaims{
		Purpose:     "activation",
		Fingerprint: StateFingerprint("activation", "false"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Fatalf("expected URL-safe token, got %q", token)
	}

	claims, err := signer.Parse(token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.Subject != "acc-1" || claims.Purpose != "activation" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := signer.Parse(token, now.Add(2*time.Hour)); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestActionTokenRejectsTamperingAndForeignKeys(t *testing.T) {
	signer, _ := NewActionTokenSigner(testSecret, "gkart")
	other, _ := NewActionTokenSigner("ffffffffffffffffffffffffffffffff", "gkart")

	now := time.Now().UTC()
	claims := &ActionTokenClaims{
		Purpose: "reset",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	foreign, err := other.Sign(claims)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if _, err := signer.Parse(foreign, now); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}

	valid, _ := signer.Sign(claims)
	parts := strings.Split(valid, ".")
	parts[1] = "f" + parts[1][1:]
	tampered := strings.Join(parts, ".")
	if _, err := signer.Parse(tampered, now); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestNewActionTokenSignerRequiresLongSecret(t *testing.T) {
	if _, err := NewActionTokenSigner("short", "gkart"); !errors.Is(err, ErrActionSecretTooShort) {
		t.Fatalf("expected ErrActionSecretTooShort, got %v", err)
	}
}

func TestStateFingerprintChangesWithState(t *testing.T) {
	a := StateFingerprint("activation", "false", "hash")
	b := StateFingerprint("activation", "true", "hash")
	if a == b {
		t.Fatal("expected fingerprint to change with state")
	}
	if len(a) != fingerprintLength {
		t.Fatalf("expected fingerprint length %d, got %d", fingerprintLength, len(a))
	}
}
