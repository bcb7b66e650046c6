package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Surajgupta63/GKart/internal/core/domain"
)

func googleLogin(email string) SocialLogin {
	return SocialLogin{
		Provider:       "Google",
		ProviderUserID: "g-123",
		Email:          email,
		Name:           "Asha Verma",
		PictureURL:     "https://lh3.example/asha.png",
	}
}

func TestSocialResolveCreatesNewAccount(t *testing.T) {
	h := newTestHarness(t, AccountServiceOptions{})

	resolution, err := h.resolver.Resolve(context.Background(), googleLogin("Asha@Example.com"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolution.Outcome != OutcomeCreatedNew {
		t.Fatalf("expected created_new, got %s", resolution.Outcome)
	}
	account := resolution.Account
	if !account.IsActive || account.HasPassword() {
		t.Fatalf("expected active password-less account, got %+v", account)
	}
	if account.AuthSource != domain.SocialSource("google") {
		t.Fatalf("unexpected auth source %+v", account.AuthSource)
	}
	if account.Username != "AshaVerma" {
		t.Fatalf("unexpected username %q", account.Username)
	}
	profile := h.accounts.profiles[account.ID]
	if profile.FirstName != "Asha" || profile.LastName != "Verma" || profile.ProfilePicture != "https://lh3.example/asha.png" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if len(h.identities.identities) != 1 || h.identities.identities[0].Provider != "google" {
		t.Fatalf("unexpected identities %+v", h.identities.identities)
	}
}

func TestSocialResolveLinksExistingEmail(t *testing.T) {
	h := newTestHarness(t, AccountServiceOptions{})
	existing := h.activeAccount(t, "asha@example.com")

	resolution, err := h.resolver.Resolve(context.Background(), googleLogin("asha@example.com"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolution.Outcome != OutcomeLinkedExisting || resolution.Account.ID != existing.ID {
		t.Fatalf("expected link to %s, got %+v", existing.ID, resolution)
	}
	if h.accounts.count() != 1 {
		t.Fatalf("expected no duplicate account, got %d", h.accounts.count())
	}

	again, err := h.resolver.Resolve(context.Background(), googleLogin("asha@example.com"))
	if err != nil {
		t.Fatalf("second Resolve returned error: %v", err)
	}
	if again.Outcome != OutcomeAlreadyLinked || again.Account.ID != existing.ID {
		t.Fatalf("expected already_linked, got %+v", again)
	}
}

func TestSocialResolveActivatesPendingAccount(t *testing.T) {
	h := newTestHarness(t, AccountServiceOptions{})
	ctx := context.Background()
	if _, err := h.service.Register(ctx, registerInput("asha@example.com", strongTestPassword)); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	resolution, err := h.resolver.Resolve(ctx, googleLogin("asha@example.com"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !resolution.Account.IsActive {
		t.Fatal("expected pending account activated by the provider link")
	}
	if len(h.events.activated) != 1 || h.events.activated[0].Via != "social:google" {
		t.Fatalf("unexpected activation events %+v", h.events.activated)
	}
	// The password set at registration keeps working.
	if _, err := h.service.Login(ctx, LoginInput{Email: "asha@example.com", Password: strongTestPassword}, domain.RequestContext{}); err != nil {
		t.Fatalf("expected password login after link, got %v", err)
	}
}

func TestSocialResolveRejectsSecondIdentityFromSameProvider(t *testing.T) {
	h := newTestHarness(t, AccountServiceOptions{})
	ctx := context.Background()
	if _, err := h.resolver.Resolve(ctx, googleLogin("asha@example.com")); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	other := googleLogin("asha@example.com")
	other.ProviderUserID = "g-999"
	if _, err := h.resolver.Resolve(ctx, other); !errors.Is(err, ErrInvalidSocialLogin) {
		t.Fatalf("expected ErrInvalidSocialLogin, got %v", err)
	}
}

func TestSocialResolveRetriesAfterEmailRace(t *testing.T) {
	h := newTestHarness(t, AccountServiceOptions{})
	h.identities.raceAccount = &domain.Account{ID: "racer", Email: "asha@example.com", IsActive: true}

	resolution, err := h.resolver.Resolve(context.Background(), googleLogin("asha@example.com"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if resolution.Account.ID != "racer" || resolution.Outcome != OutcomeLinkedExisting {
		t.Fatalf("expected link to the racing account, got %+v", resolution)
	}
}

func TestSocialResolveValidation(t *testing.T) {
	h := newTestHarness(t, AccountServiceOptions{})
	login := googleLogin("")
	if _, err := h.resolver.Resolve(context.Background(), login); !errors.Is(err, ErrInvalidSocialLogin) {
		t.Fatalf("expected ErrInvalidSocialLogin, got %v", err)
	}
}

func TestSocialSignInReconcilesCart(t *testing.T) {
	h := newTestHarness(t, AccountServiceOptions{})
	h.carts.addGuestItem("guest-key", "P1", []string{"red"}, 2)

	result, resolution, err := h.service.SocialSignIn(context.Background(), googleLogin("asha@example.com"), domain.RequestContext{SessionKey: "guest-key"}, "/store/")
	if err != nil {
		t.Fatalf("SocialSignIn returned error: %v", err)
	}
	if resolution.Outcome != OutcomeCreatedNew {
		t.Fatalf("unexpected outcome %s", resolution.Outcome)
	}
	if result.Redirect != "/store/" || result.Reconciliation.Reassigned != 1 {
		t.Fatalf("unexpected login result %+v", result)
	}
	if h.carts.accountCart(resolution.Account.ID)["P1|red"] != 2 {
		t.Fatalf("expected guest item moved to account, got %v", h.carts.accountCart(resolution.Account.ID))
	}
	if h.metrics.counts["login:social:success"] != 1 {
		t.Fatalf("expected social login metric, got %v", h.metrics.counts)
	}
}

func TestSplitName(t *testing.T) {
	first, last := splitName("  Asha  Rani Verma ")
	if first != "Asha" || last != "Rani Verma" {
		t.Fatalf("unexpected split %q %q", first, last)
	}
	first, last = splitName("Cher")
	if first != "Cher" || last != "" {
		t.Fatalf("unexpected split %q %q", first, last)
	}
}
