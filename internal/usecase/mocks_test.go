package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/infra/security"
	"github.com/Surajgupta63/GKart/internal/repository"
)

const (
	testSecret         = "0123456789abcdef0123456789abcdef"
	strongTestPassword = "Sup3r!SecurePass#7890"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// mockAccountRepository is an in-memory account store keyed by id with a unique email index.
type mockAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	profiles map[string]domain.Profile

	createCalls      int
	createErr        error
	getByEmailErr    error
	updateLoginErr   error
	activateCalls    int
	passwordUpdates  int
	lastLoginUpdates int
}

func newMockAccountRepository() *mockAccountRepository {
	return &mockAccountRepository{
		accounts: map[string]domain.Account{},
		profiles: map[string]domain.Profile{},
	}
}

func (m *mockAccountRepository) put(account domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *mockAccountRepository) get(id string) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id]
}

func (m *mockAccountRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

func (m *mockAccountRepository) CreateWithProfile(_ context.Context, account domain.Account, profile domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return fmt.Errorf("insert account: %w", repository.ErrDuplicate)
		}
	}
	m.accounts[account.ID] = account
	m.profiles[account.ID] = profile
	return nil
}

func (m *mockAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (m *mockAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	for _, account := range m.accounts {
		if account.Email == domain.NormalizeEmail(email) {
			found := account
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockAccountRepository) Activate(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if account.IsActive {
		return false, nil
	}
	m.activateCalls++
	account.IsActive = true
	account.UpdatedAt = at
	m.accounts[id] = account
	return true, nil
}

func (m *mockAccountRepository) UpdatePassword(_ context.Context, id, hash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.passwordUpdates++
	account.PasswordHash = hash
	account.UpdatedAt = at
	m.accounts[id] = account
	return nil
}

func (m *mockAccountRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateLoginErr != nil {
		return m.updateLoginErr
	}
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.lastLoginUpdates++
	account.LastLoginAt = &at
	m.accounts[id] = account
	return nil
}

type mockProfileRepository struct {
	accounts *mockAccountRepository
}

func (m *mockProfileRepository) GetByAccountID(_ context.Context, accountID string) (*domain.Profile, error) {
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()
	profile, ok := m.accounts.profiles[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &profile, nil
}

type mockSocialIdentityRepository struct {
	accounts   *mockAccountRepository
	identities []domain.SocialIdentity
	linkErr    error
	// raceEmail makes the first CreateAccountWithIdentity lose to a concurrent sign-up.
	raceAccount *domain.Account
}

func (m *mockSocialIdentityRepository) GetByProvider(_ context.Context, provider, providerUserID string) (*domain.SocialIdentity, error) {
	for _, identity := range m.identities {
		if identity.Provider == provider && identity.ProviderUserID == providerUserID {
			found := identity
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockSocialIdentityRepository) ListByAccount(_ context.Context, accountID string) ([]domain.SocialIdentity, error) {
	var out []domain.SocialIdentity
	for _, identity := range m.identities {
		if identity.AccountID == accountID {
			out = append(out, identity)
		}
	}
	return out, nil
}

func (m *mockSocialIdentityRepository) Link(_ context.Context, identity domain.SocialIdentity) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	for _, existing := range m.identities {
		if (existing.Provider == identity.Provider && existing.ProviderUserID == identity.ProviderUserID) ||
			(existing.AccountID == identity.AccountID && existing.Provider == identity.Provider) {
			return fmt.Errorf("link identity: %w", repository.ErrDuplicate)
		}
	}
	m.identities = append(m.identities, identity)
	return nil
}

func (m *mockSocialIdentityRepository) CreateAccountWithIdentity(ctx context.Context, account domain.Account, profile domain.Profile, identity domain.SocialIdentity) error {
	if m.raceAccount != nil {
		m.accounts.put(*m.raceAccount)
		m.raceAccount = nil
		return fmt.Errorf("insert account: %w", repository.ErrDuplicate)
	}
	if err := m.accounts.CreateWithProfile(ctx, account, profile); err != nil {
		return err
	}
	m.identities = append(m.identities, identity)
	return nil
}

// mockSessionStore keeps sessions in memory.
type mockSessionStore struct {
	sessions  map[string]domain.Session
	createErr error
	touches   int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: map[string]domain.Session{}}
}

func (m *mockSessionStore) Create(_ context.Context, session domain.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (m *mockSessionStore) Touch(_ context.Context, id string, at time.Time) error {
	session, ok := m.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.touches++
	session.Touch(at, session.ExpiresAt.Sub(session.LastSeenAt))
	m.sessions[id] = session
	return nil
}

func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionStore) DeleteAllForAccount(_ context.Context, accountID, keep string) (int, error) {
	removed := 0
	for id, session := range m.sessions {
		if session.AccountID == accountID && id != keep {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type mockResetSessionStore struct {
	sessions map[string]domain.ResetSession
	consumed int
}

func newMockResetSessionStore() *mockResetSessionStore {
	return &mockResetSessionStore{sessions: map[string]domain.ResetSession{}}
}

func (m *mockResetSessionStore) Create(_ context.Context, rs domain.ResetSession) error {
	m.sessions[rs.ID] = rs
	return nil
}

func (m *mockResetSessionStore) Get(_ context.Context, id string) (*domain.ResetSession, error) {
	rs, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rs, nil
}

func (m *mockResetSessionStore) Consume(_ context.Context, id string) (*domain.ResetSession, error) {
	rs, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.sessions, id)
	m.consumed++
	return &rs, nil
}

// fakeHasher prefixes passwords instead of running Argon2.
type fakeHasher struct {
	dummyCalls int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *fakeHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

func (h *fakeHasher) VerifyDummy(string) {
	h.dummyCalls++
}

type recordingNotifier struct {
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, notification domain.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) count(template string) int {
	total := 0
	for _, s := range n.sent {
		if s.Template == template {
			total++
		}
	}
	return total
}

// tokenFromLink extracts the signed token from the last link sent with template.
func (n *recordingNotifier) tokenFromLink(t *testing.T, template string) string {
	t.Helper()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Template != template {
			continue
		}
		link := n.sent[i].Context["link"]
		idx := strings.LastIndex(link, "/")
		if idx < 0 {
			t.Fatalf("malformed link %q", link)
		}
		return link[idx+1:]
	}
	t.Fatalf("no %s notification sent", template)
	return ""
}

type recordingEvents struct {
	registered      []domain.AccountRegisteredEvent
	activated       []domain.AccountActivatedEvent
	passwordChanged []domain.PasswordChangedEvent
	resetRequested  []domain.PasswordResetRequestedEvent
	reconciled      []domain.CartReconciledEvent
}

func (e *recordingEvents) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	e.registered = append(e.registered, event)
	return nil
}

func (e *recordingEvents) PublishAccountActivated(_ context.Context, event domain.AccountActivatedEvent) error {
	e.activated = append(e.activated, event)
	return nil
}

func (e *recordingEvents) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	e.passwordChanged = append(e.passwordChanged, event)
	return nil
}

func (e *recordingEvents) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	e.resetRequested = append(e.resetRequested, event)
	return nil
}

func (e *recordingEvents) PublishCartReconciled(_ context.Context, event domain.CartReconciledEvent) error {
	e.reconciled = append(e.reconciled, event)
	return nil
}

type countingMetrics struct {
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: map[string]int{}}
}

func (m *countingMetrics) IncRegistration(outcome string) { m.counts["registration:"+outcome]++ }
func (m *countingMetrics) IncActivation(outcome string)   { m.counts["activation:"+outcome]++ }
func (m *countingMetrics) IncLogin(method, outcome string) {
	m.counts["login:"+method+":"+outcome]++
}
func (m *countingMetrics) ObserveReconciliation(merged, reassigned int) {
	m.counts["reconcile:merged"] += merged
	m.counts["reconcile:reassigned"] += reassigned
}
func (m *countingMetrics) IncReconciliationFailure() { m.counts["reconcile:failure"]++ }
func (m *countingMetrics) IncNotification(template, outcome string) {
	m.counts["notification:"+template+":"+outcome]++
}

type mockRateLimitStore struct {
	attempts map[string][]time.Time
}

func newMockRateLimitStore() *mockRateLimitStore {
	return &mockRateLimitStore{attempts: map[string][]time.Time{}}
}

func (m *mockRateLimitStore) TrimWindow(_ context.Context, id string, window time.Duration, ref time.Time) error {
	kept := m.attempts[id][:0]
	for _, at := range m.attempts[id] {
		if at.After(ref.Add(-window)) {
			kept = append(kept, at)
		}
	}
	m.attempts[id] = kept
	return nil
}

func (m *mockRateLimitStore) CountAttempts(_ context.Context, id string, _ time.Duration, _ time.Time) (int, error) {
	return len(m.attempts[id]), nil
}

func (m *mockRateLimitStore) RecordAttempt(_ context.Context, id string, at time.Time) error {
	m.attempts[id] = append(m.attempts[id], at)
	return nil
}

func (m *mockRateLimitStore) OldestAttempt(_ context.Context, id string, _ time.Duration, _ time.Time) (time.Time, bool, error) {
	if len(m.attempts[id]) == 0 {
		return time.Time{}, false, nil
	}
	return m.attempts[id][0], true, nil
}

// policyStub rejects passwords shorter than ten characters.
type policyStub struct{}

func (policyStub) Validate(password string, _ ...string) error {
	if len(password) < 10 {
		return &security.PasswordValidationError{Code: "min_length", Message: "too short"}
	}
	return nil
}

// mockCartStore keeps cart rows in memory. WithinTx works on a copy that is only
// swapped in when fn succeeds.
type mockCartStore struct {
	mu      sync.Mutex
	carts   map[string]domain.Cart
	items   map[string]domain.CartItem
	failOn  string
	locks   []string
	nextID  int
	txCalls int
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: map[string]domain.Cart{}, items: map[string]domain.CartItem{}}
}

func (m *mockCartStore) addGuestItem(sessionKey, productID string, variations []string, qty int) domain.CartItem {
	cart, ok := m.carts[sessionKey]
	if !ok {
		m.nextID++
		cart = domain.Cart{ID: fmt.Sprintf("cart-%d", m.nextID), SessionKey: sessionKey}
		m.carts[sessionKey] = cart
	}
	m.nextID++
	cartID := cart.ID
	item := domain.CartItem{
		ID:         fmt.Sprintf("item-%d", m.nextID),
		CartID:     &cartID,
		ProductID:  productID,
		Variations: domain.NormalizeVariations(variations),
		Quantity:   qty,
		IsActive:   true,
	}
	m.items[item.ID] = item
	return item
}

func (m *mockCartStore) addAccountItem(accountID, productID string, variations []string, qty int) domain.CartItem {
	m.nextID++
	owner := accountID
	item := domain.CartItem{
		ID:         fmt.Sprintf("item-%d", m.nextID),
		AccountID:  &owner,
		ProductID:  productID,
		Variations: domain.NormalizeVariations(variations),
		Quantity:   qty,
		IsActive:   true,
	}
	m.items[item.ID] = item
	return item
}

// accountCart returns quantities keyed by variation key.
func (m *mockCartStore) accountCart(accountID string) map[string]int {
	out := map[string]int{}
	for _, item := range m.items {
		if item.AccountID != nil && *item.AccountID == accountID {
			out[item.Key()] += item.Quantity
		}
	}
	return out
}

func (m *mockCartStore) accountRows(accountID string) int {
	rows := 0
	for _, item := range m.items {
		if item.AccountID != nil && *item.AccountID == accountID {
			rows++
		}
	}
	return rows
}

func (m *mockCartStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo port.CartRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++

	tx := &mockCartTx{store: m, items: map[string]domain.CartItem{}, carts: map[string]domain.Cart{}}
	for k, v := range m.items {
		tx.items[k] = v
	}
	for k, v := range m.carts {
		tx.carts[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.items = tx.items
	m.carts = tx.carts
	return nil
}

func (m *mockCartStore) view() *mockCartTx {
	return &mockCartTx{store: m, items: m.items, carts: m.carts}
}

func (m *mockCartStore) LockAccount(ctx context.Context, id string) error {
	return m.view().LockAccount(ctx, id)
}
func (m *mockCartStore) ItemsForSession(ctx context.Context, key string, forUpdate bool) ([]domain.CartItem, error) {
	return m.view().ItemsForSession(ctx, key, forUpdate)
}
func (m *mockCartStore) ItemsForAccount(ctx context.Context, id string, forUpdate bool) ([]domain.CartItem, error) {
	return m.view().ItemsForAccount(ctx, id, forUpdate)
}
func (m *mockCartStore) IncrementQuantity(ctx context.Context, id string, delta int, at time.Time) error {
	return m.view().IncrementQuantity(ctx, id, delta, at)
}
func (m *mockCartStore) ReassignToAccount(ctx context.Context, itemID, accountID string, at time.Time) error {
	return m.view().ReassignToAccount(ctx, itemID, accountID, at)
}
func (m *mockCartStore) DeleteItem(ctx context.Context, id string) error {
	return m.view().DeleteItem(ctx, id)
}
func (m *mockCartStore) EnsureCart(ctx context.Context, key string, at time.Time) (*domain.Cart, error) {
	return m.view().EnsureCart(ctx, key, at)
}
func (m *mockCartStore) InsertItem(ctx context.Context, item domain.CartItem) error {
	return m.view().InsertItem(ctx, item)
}

type mockCartTx struct {
	store *mockCartStore
	items map[string]domain.CartItem
	carts map[string]domain.Cart
}

func (t *mockCartTx) fail(op string) error {
	if t.store.failOn == op {
		return errors.New(op + " failed")
	}
	return nil
}

func (t *mockCartTx) LockAccount(_ context.Context, id string) error {
	t.store.locks = append(t.store.locks, id)
	return t.fail("lock")
}

func (t *mockCartTx) ItemsForSession(_ context.Context, key string, _ bool) ([]domain.CartItem, error) {
	cart, ok := t.carts[key]
	if !ok {
		return nil, nil
	}
	var out []domain.CartItem
	for _, item := range t.items {
		if item.CartID != nil && *item.CartID == cart.ID && item.IsActive {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *mockCartTx) ItemsForAccount(_ context.Context, id string, _ bool) ([]domain.CartItem, error) {
	var out []domain.CartItem
	for _, item := range t.items {
		if item.AccountID != nil && *item.AccountID == id && item.IsActive {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *mockCartTx) IncrementQuantity(_ context.Context, id string, delta int, at time.Time) error {
	if err := t.fail("increment"); err != nil {
		return err
	}
	item, ok := t.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	item.Quantity += delta
	item.UpdatedAt = at
	t.items[id] = item
	return nil
}

func (t *mockCartTx) ReassignToAccount(_ context.Context, itemID, accountID string, at time.Time) error {
	if err := t.fail("reassign"); err != nil {
		return err
	}
	item, ok := t.items[itemID]
	if !ok {
		return repository.ErrNotFound
	}
	owner := accountID
	item.AccountID = &owner
	item.CartID = nil
	item.UpdatedAt = at
	t.items[itemID] = item
	return nil
}

func (t *mockCartTx) DeleteItem(_ context.Context, id string) error {
	if _, ok := t.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.items, id)
	return nil
}

func (t *mockCartTx) EnsureCart(_ context.Context, key string, at time.Time) (*domain.Cart, error) {
	if cart, ok := t.carts[key]; ok {
		return &cart, nil
	}
	t.store.nextID++
	cart := domain.Cart{ID: fmt.Sprintf("cart-%d", t.store.nextID), SessionKey: key, CreatedAt: at}
	t.carts[key] = cart
	return &cart, nil
}

func (t *mockCartTx) InsertItem(_ context.Context, item domain.CartItem) error {
	t.items[item.ID] = item
	return nil
}

// testHarness wires the services against the in-memory mocks.
type testHarness struct {
	accounts      *mockAccountRepository
	identities    *mockSocialIdentityRepository
	sessions      *mockSessionStore
	resetSessions *mockResetSessionStore
	carts         *mockCartStore
	hasher        *fakeHasher
	notifier      *recordingNotifier
	events        *recordingEvents
	metrics       *countingMetrics
	rateLimits    *mockRateLimitStore
	tokens        *TokenService
	reconciler    *CartReconciler
	resolver      *SocialLinkResolver
	service       *AccountService
	clock         *time.Time
}

func newTestHarness(t *testing.T, opts AccountServiceOptions) *testHarness {
	t.Helper()

	now := testNow
	h := &testHarness{
		accounts:      newMockAccountRepository(),
		sessions:      newMockSessionStore(),
		resetSessions: newMockResetSessionStore(),
		carts:         newMockCartStore(),
		hasher:        &fakeHasher{},
		notifier:      &recordingNotifier{},
		events:        &recordingEvents{},
		metrics:       newCountingMetrics(),
		rateLimits:    newMockRateLimitStore(),
		clock:         &now,
	}
	h.identities = &mockSocialIdentityRepository{accounts: h.accounts}
	clock := func() time.Time { return *h.clock }

	signer, err := security.NewActionTokenSigner(testSecret, "gkart-test")
	if err != nil {
		t.Fatalf("NewActionTokenSigner returned error: %v", err)
	}
	h.tokens = NewTokenService(signer, h.accounts, TokenServiceOptions{}).WithClock(clock)
	h.reconciler = NewCartReconciler(h.carts, h.events, h.metrics, nil).WithClock(clock)
	h.resolver = NewSocialLinkResolver(h.accounts, h.identities, h.events, h.metrics, nil).WithClock(clock)

	if opts.BaseURL == "" {
		opts.BaseURL = "https://gkart.test"
	}
	h.service = NewAccountService(AccountServiceDeps{
		Accounts:      h.accounts,
		Profiles:      &mockProfileRepository{accounts: h.accounts},
		Sessions:      h.sessions,
		ResetSessions: h.resetSessions,
		Tokens:        h.tokens,
		Hasher:        h.hasher,
		Policy:        policyStub{},
		Reconciler:    h.reconciler,
		Resolver:      h.resolver,
		Events:        h.events,
		Notifier:      h.notifier,
		RateLimits:    h.rateLimits,
		Metrics:       h.metrics,
	}, opts).WithClock(clock)

	return h
}

func (h *testHarness) advance(d time.Duration) {
	*h.clock = h.clock.Add(d)
}

func registerInput(email, password string) RegisterInput {
	return RegisterInput{
		FirstName:       "Asha",
		LastName:        "Verma",
		Email:           email,
		MobileNumber:    "9876543210",
		Password:        password,
		ConfirmPassword: password,
	}
}

// activeAccount registers and activates an account through the public flow.
func (h *testHarness) activeAccount(t *testing.T, email string) domain.Account {
	t.Helper()
	ctx := context.Background()
	if _, err := h.service.Register(ctx, registerInput(email, strongTestPassword)); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	token := h.notifier.tokenFromLink(t, domain.TemplateAccountActivation)
	if _, err := h.service.Activate(ctx, token); err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	account, err := h.accounts.GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	return *account
}
