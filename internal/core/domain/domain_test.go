package domain

import (
	"testing"
	"time"
)

func TestVariationKeyIgnoresOrderAndDuplicates(t *testing.T) {
	a := VariationKey("prod-x", []string{"red", "large"})
	b := VariationKey("prod-x", []string{" large", "red", "red", ""})
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}

	c := VariationKey("prod-x", []string{"red"})
	if a == c {
		t.Fatalf("expected different variation sets to produce different keys")
	}

	d := VariationKey("prod-y", []string{"red", "large"})
	if a == d {
		t.Fatalf("expected different products to produce different keys")
	}
}

func TestVariationKeyKeepsSeparatorsInsideIDsDistinct(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"comma in variation", VariationKey("p1", []string{"large,red"}), VariationKey("p1", []string{"large", "red"})},
		{"pipe in product", VariationKey("p1|x", nil), VariationKey("p1", []string{"x"})},
		{"escaped backslash", VariationKey("p1", []string{`a\`, "b"}), VariationKey("p1", []string{`a\,b`})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.a == tc.b {
				t.Fatalf("expected distinct keys, both were %q", tc.a)
			}
		})
	}
}

func TestCartItemKey(t *testing.T) {
	item := CartItem{ProductID: "p1", Variations: []string{"b", "a"}}
	if got, want := item.Key(), "p1|a,b"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNormalizeEmailAndUsername(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
	if got := UsernameFromEmail("Bob.Smith@shop.io"); got != "bob.smith" {
		t.Fatalf("unexpected username %q", got)
	}
	if got := UsernameFromEmail("nodomain"); got != "nodomain" {
		t.Fatalf("unexpected username %q", got)
	}
}

func TestCanView(t *testing.T) {
	owner := &Principal{AccountID: "a1"}
	other := &Principal{AccountID: "a2"}
	admin := &Principal{AccountID: "root", IsSuperuser: true}

	tests := []struct {
		name      string
		principal *Principal
		want      bool
	}{
		{name: "owner", principal: owner, want: true},
		{name: "other", principal: other, want: false},
		{name: "superuser", principal: admin, want: true},
		{name: "anonymous", principal: nil, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanView(tc.principal, "a1"); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if CanAdd(owner) {
		t.Fatalf("expected regular account to be denied add")
	}
	if !CanAdd(&Principal{AccountID: "s", IsStaff: true}) {
		t.Fatalf("expected staff to be allowed add")
	}
}

func TestDegradationPolicy(t *testing.T) {
	lenient := NewDegradationPolicy(ParseDegradationPolicyMode(""))
	if !lenient.AllowsFallback(DegradationReasonCartReconciliation) {
		t.Fatalf("expected lenient policy to allow fallback")
	}

	strict := NewDegradationPolicy(ParseDegradationPolicyMode(" STRICT "))
	if strict.AllowsFallback(DegradationReasonCartReconciliation) {
		t.Fatalf("expected strict policy to reject reconciliation fallback")
	}
	if !strict.AllowsFallback(DegradationReasonLastLoginUpdate) {
		t.Fatalf("expected last login failures to always fall back")
	}
}

func TestSessionTouchSlidesExpiry(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := Session{ID: "s1", CreatedAt: start, ExpiresAt: start.Add(time.Hour)}

	later := start.Add(50 * time.Minute)
	s.Touch(later, time.Hour)

	if !s.IsActive(start.Add(90 * time.Minute)) {
		t.Fatalf("expected touched session to remain active")
	}
	if s.IsActive(later.Add(time.Hour)) {
		t.Fatalf("expected session to expire one ttl after last activity")
	}
}

func TestCartOwnerFor(t *testing.T) {
	anon := CartOwnerFor(RequestContext{SessionKey: "sk"})
	if anon.IsAccount() || anon.SessionKey != "sk" {
		t.Fatalf("expected anonymous owner, got %+v", anon)
	}

	auth := CartOwnerFor(RequestContext{SessionKey: "sk", Principal: &Principal{AccountID: "a1"}})
	if !auth.IsAccount() || auth.AccountID != "a1" {
		t.Fatalf("expected account owner, got %+v", auth)
	}
}
