package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/infra/logger"
	"github.com/Surajgupta63/GKart/internal/infra/security"
	"github.com/Surajgupta63/GKart/internal/repository"
)

// RegisterMessage is returned for every accepted registration so that callers cannot
// tell a fresh sign-up from a re-sent activation link.
const RegisterMessage = "Thank you for registering with us. We have sent you a verification email. Please verify it."

const (
	defaultSessionTTL      = time.Hour
	defaultResetSessionTTL = 15 * time.Minute
	sessionIDBytes         = 32

	activationPath = "/api/v1/accounts/activate/"
	resetPath      = "/api/v1/accounts/password/reset/"
)

// AccountServiceDeps groups the collaborators of AccountService.
type AccountServiceDeps struct {
	Accounts      port.AccountRepository
	Profiles      port.ProfileRepository
	Sessions      port.SessionStore
	ResetSessions port.ResetSessionStore
	Tokens        *TokenService
	Hasher        port.PasswordHasher
	Policy        port.PasswordPolicyValidator
	Reconciler    Reconciler
	Resolver      *SocialLinkResolver
	Events        port.EventPublisher
	Notifier      port.Notifier
	RateLimits    port.RateLimitStore
	Metrics       IdentityMetrics
}

// AccountServiceOptions tunes the lifecycle flows.
type AccountServiceOptions struct {
	BaseURL            string
	SessionTTL         time.Duration
	ResetSessionTTL    time.Duration
	ResetRequestLimit  int
	ResetRequestWindow time.Duration
	Degradation        domain.DegradationPolicy
}

// AccountService drives registration, activation, login and password recovery.
type AccountService struct {
	accounts      port.AccountRepository
	profiles      port.ProfileRepository
	sessions      port.SessionStore
	resetSessions port.ResetSessionStore
	tokens        *TokenService
	hasher        port.PasswordHasher
	policy        port.PasswordPolicyValidator
	reconciler    Reconciler
	resolver      *SocialLinkResolver
	events        port.EventPublisher
	notifier      port.Notifier
	metrics       IdentityMetrics
	resetLimit    slidingWindow
	opts          AccountServiceOptions
	logger        *zap.Logger
	now           func() time.Time
}

func NewAccountService(deps AccountServiceDeps, opts AccountServiceOptions) *AccountService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.ResetSessionTTL <= 0 {
		opts.ResetSessionTTL = defaultResetSessionTTL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &AccountService{
		accounts:      deps.Accounts,
		profiles:      deps.Profiles,
		sessions:      deps.Sessions,
		resetSessions: deps.ResetSessions,
		tokens:        deps.Tokens,
		hasher:        deps.Hasher,
		policy:        deps.Policy,
		reconciler:    deps.Reconciler,
		resolver:      deps.Resolver,
		events:        deps.Events,
		notifier:      deps.Notifier,
		metrics:       metricsOrNoop(deps.Metrics),
		resetLimit: slidingWindow{
			store:  deps.RateLimits,
			name:   "password_reset",
			limit:  opts.ResetRequestLimit,
			window: opts.ResetRequestWindow,
		},
		opts:   opts,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithLogger attaches a structured logger to the service for operational diagnostics.
func (s *AccountService) WithLogger(l *zap.Logger) *AccountService {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithClock overrides the clock, primarily for deterministic testing.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *AccountService) log(ctx context.Context) *zap.Logger {
	return s.logger.With(logger.ContextFields(ctx)...)
}

// RegisterResult is identical for new and pending registrations.
type RegisterResult struct {
	Message string
}

// Register creates a pending account, or re-sends the activation link for an account that
// is still pending. The stored credentials of a pending account are left untouched.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	in = in.normalized()
	if err := asValidationError(in.Validate()); err != nil {
		return RegisterResult{}, err
	}
	if in.Password != in.ConfirmPassword {
		return RegisterResult{}, ErrPasswordMismatch
	}
	if err := s.policy.Validate(in.Password, in.Email, in.FirstName, in.LastName, in.MobileNumber); err != nil {
		return RegisterResult{}, fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	email := domain.NormalizeEmail(in.Email)

	existing, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.registerExisting(ctx, *existing)
	case !errors.Is(err, repository.ErrNotFound):
		return RegisterResult{}, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	at := s.now()
	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     domain.UsernameFromEmail(email),
		PasswordHash: hash,
		AuthSource:   domain.PasswordSource(),
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	profile := domain.Profile{
		AccountID:      account.ID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		MobileNumber:   in.MobileNumber,
		ProfilePicture: domain.DefaultProfilePicture,
		UpdatedAt:      at,
	}

	if err := s.accounts.CreateWithProfile(ctx, account, profile); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return RegisterResult{}, fmt.Errorf("create account: %w", err)
		}
		// A concurrent registration won the unique email index.
		winner, lookupErr := s.accounts.GetByEmail(ctx, email)
		if lookupErr != nil {
			return RegisterResult{}, fmt.Errorf("lookup account after conflict: %w", lookupErr)
		}
		return s.registerExisting(ctx, *winner)
	}

	s.metrics.IncRegistration("created")
	s.publishRegistered(ctx, account, false)
	s.sendActivation(ctx, account)

	return RegisterResult{Message: RegisterMessage}, nil
}

func (s *AccountService) registerExisting(ctx context.Context, account domain.Account) (RegisterResult, error) {
	if account.IsActive {
		return RegisterResult{}, ErrDuplicateActiveAccount
	}
	s.metrics.IncRegistration("reissued")
	s.publishRegistered(ctx, account, true)
	s.sendActivation(ctx, account)
	return RegisterResult{Message: RegisterMessage}, nil
}

// ActivateResult reports the outcome of following an activation link.
type ActivateResult struct {
	AccountID     string
	AlreadyActive bool
}

// Activate moves a pending account to active. Replaying a link for an account that is
// already active succeeds without side effects.
func (s *AccountService) Activate(ctx context.Context, token string) (ActivateResult, error) {
	accountID, err := s.tokens.Verify(ctx, token, domain.TokenPurposeActivation)
	if err != nil {
		if !errors.Is(err, ErrInvalidOrExpiredToken) {
			return ActivateResult{}, err
		}
		if errors.Is(err, ErrTokenStale) {
			account, lookupErr := s.accounts.GetByID(ctx, accountID)
			if lookupErr == nil && account.IsActive {
				s.metrics.IncActivation("already_active")
				return ActivateResult{AccountID: accountID, AlreadyActive: true}, nil
			}
		}
		s.metrics.IncActivation("invalid")
		return ActivateResult{}, ErrInvalidOrExpiredToken
	}

	at := s.now()
	activated, err := s.accounts.Activate(ctx, accountID, at)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncActivation("invalid")
			return ActivateResult{}, ErrInvalidOrExpiredToken
		}
		return ActivateResult{}, fmt.Errorf("activate account: %w", err)
	}
	if !activated {
		s.metrics.IncActivation("already_active")
		return ActivateResult{AccountID: accountID, AlreadyActive: true}, nil
	}

	s.metrics.IncActivation("activated")
	if s.events != nil {
		event := domain.AccountActivatedEvent{
			EventID:     uuid.NewString(),
			AccountID:   accountID,
			ActivatedAt: at,
			Via:         "email_link",
		}
		if err := s.events.PublishAccountActivated(ctx, event); err != nil {
			s.log(ctx).Warn("publish account activated event failed", zap.String("account_id", accountID), zap.Error(err))
		}
	}

	return ActivateResult{AccountID: accountID}, nil
}

// LoginInput carries credentials and the optional post-login target.
type LoginInput struct {
	Email    string
	Password string
	Next     string
}

// LoginResult is returned by both password and social login.
type LoginResult struct {
	Account        domain.Account
	Session        domain.Session
	Redirect       string
	RedirectErr    error
	Reconciliation ReconcileOutcome
}

// Login authenticates with email and password. Every credential problem, including a
// pending account, yields ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, in LoginInput, rc domain.RequestContext) (LoginResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		s.metrics.IncLogin("password", "invalid")
		return LoginResult{}, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyDummy(in.Password)
			s.metrics.IncLogin("password", "invalid")
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	if !account.HasPassword() {
		s.hasher.VerifyDummy(in.Password)
		s.metrics.IncLogin("password", "invalid")
		return LoginResult{}, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(in.Password, account.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok || !account.IsActive {
		s.metrics.IncLogin("password", "invalid")
		return LoginResult{}, ErrInvalidCredentials
	}

	return s.completeLogin(ctx, *account, rc, in.Next, "password")
}

// SocialSignIn resolves the provider identity and completes the login like a password login.
func (s *AccountService) SocialSignIn(ctx context.Context, login SocialLogin, rc domain.RequestContext, next string) (LoginResult, Resolution, error) {
	resolution, err := s.resolver.Resolve(ctx, login)
	if err != nil {
		s.metrics.IncLogin("social", "invalid")
		return LoginResult{}, Resolution{}, err
	}
	if !resolution.Account.IsActive {
		s.metrics.IncLogin("social", "invalid")
		return LoginResult{}, resolution, ErrInvalidCredentials
	}

	result, err := s.completeLogin(ctx, resolution.Account, rc, next, "social")
	return result, resolution, err
}

// completeLogin reconciles the guest cart, stamps the login and opens a session, in that order.
func (s *AccountService) completeLogin(ctx context.Context, account domain.Account, rc domain.RequestContext, next, method string) (LoginResult, error) {
	log := s.log(ctx).With(zap.String("account_id", account.ID), zap.String("method", method))
	at := s.now()

	var outcome ReconcileOutcome
	if s.reconciler != nil && rc.SessionKey != "" {
		outcome, _ = s.reconciler.Reconcile(ctx, rc.SessionKey, account.ID)
		if outcome.Failed() {
			log.Error("cart reconciliation failed", zap.Error(outcome.Err))
			if !s.opts.Degradation.AllowsFallback(domain.DegradationReasonCartReconciliation) {
				s.metrics.IncLogin(method, "degraded")
				return LoginResult{}, outcome.Err
			}
		}
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID, at); err != nil {
		if !s.opts.Degradation.AllowsFallback(domain.DegradationReasonLastLoginUpdate) {
			return LoginResult{}, fmt.Errorf("record last login: %w", err)
		}
		log.Warn("record last login failed", zap.Error(err))
	} else {
		account.LastLoginAt = &at
		account.UpdatedAt = at
	}

	sessionID, err := security.GenerateSecureToken(sessionIDBytes)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session id: %w", err)
	}
	session := domain.Session{
		ID:        sessionID,
		AccountID: account.ID,
		IP:        rc.ClientIP,
		UserAgent: rc.UserAgent,
		CreatedAt: at,
	}
	session.Touch(at, s.opts.SessionTTL)

	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	redirect, redirectErr := resolveRedirect(next)

	s.metrics.IncLogin(method, "success")
	log.Info("login succeeded",
		zap.String("ip", logger.MaskIP(rc.ClientIP)),
		zap.Int("cart_merged", outcome.Merged),
		zap.Int("cart_reassigned", outcome.Reassigned),
	)

	account.PasswordHash = ""
	return LoginResult{
		Account:        account,
		Session:        session,
		Redirect:       redirect,
		RedirectErr:    redirectErr,
		Reconciliation: outcome,
	}, nil
}

// Logout deletes the login session. Unknown sessions are not an error.
func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session id into its session and account and slides the expiry.
func (s *AccountService) Authenticate(ctx context.Context, sessionID string) (*domain.Session, *domain.Account, error) {
	if sessionID == "" {
		return nil, nil, ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	at := s.now()
	if !session.IsActive(at) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, nil, ErrSessionNotFound
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.sessions.Delete(ctx, sessionID)
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("load session account: %w", err)
	}
	if !account.IsActive {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, nil, ErrSessionNotFound
	}

	if err := s.sessions.Touch(ctx, sessionID, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("touch session: %w", err)
	}
	session.Touch(at, s.opts.SessionTTL)

	account.PasswordHash = ""
	return session, account, nil
}

// RequestPasswordReset mails a reset link. Unknown emails yield ErrAccountNotFound.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string, rc domain.RequestContext) error {
	email = domain.NormalizeEmail(email)
	if err := asValidationError(validateEmail(email)); err != nil {
		return err
	}

	at := s.now()
	if err := s.resetLimit.allow(ctx, email, at); err != nil {
		if errors.Is(err, ErrRateLimited) {
			return err
		}
		s.log(ctx).Warn("password reset rate limit check failed", zap.Error(err))
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	issued, err := s.tokens.IssueFor(*account, domain.TokenPurposeReset)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	s.notify(ctx, domain.Notification{
		ID:       uuid.NewString(),
		To:       account.Email,
		Template: domain.TemplatePasswordReset,
		Context: map[string]string{
			"username":   account.Username,
			"link":       s.opts.BaseURL + resetPath + issued.Value,
			"expires_at": issued.ExpiresAt.Format(time.RFC3339),
		},
		QueuedAt: at,
	})

	if s.events != nil {
		event := domain.PasswordResetRequestedEvent{
			EventID:           uuid.NewString(),
			AccountID:         account.ID,
			RequestedAt:       at,
			MaskedDestination: logger.MaskEmail(account.Email),
			IPAddress:         logger.MaskIP(rc.ClientIP),
			ExpiresAt:         issued.ExpiresAt,
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.log(ctx).Warn("publish password reset requested event failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return nil
}

// ValidateResetToken exchanges a reset link for a short-lived reset session.
func (s *AccountService) ValidateResetToken(ctx context.Context, token string) (domain.ResetSession, error) {
	account, err := s.tokens.VerifyAccount(ctx, token, domain.TokenPurposeReset)
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			return domain.ResetSession{}, ErrInvalidOrExpiredToken
		}
		return domain.ResetSession{}, err
	}

	id, err := security.GenerateSecureToken(sessionIDBytes)
	if err != nil {
		return domain.ResetSession{}, fmt.Errorf("generate reset session id: %w", err)
	}
	rs := domain.ResetSession{
		ID:          id,
		AccountID:   account.ID,
		Fingerprint: s.tokens.Fingerprint(*account, domain.TokenPurposeReset),
		ExpiresAt:   s.now().Add(s.opts.ResetSessionTTL),
	}
	if err := s.resetSessions.Create(ctx, rs); err != nil {
		return domain.ResetSession{}, fmt.Errorf("create reset session: %w", err)
	}
	return rs, nil
}

// CompleteReset sets a new password using a reset session. A mismatched pair or a weak
// password leaves the session usable for another attempt. A session whose account changed
// since the link was issued is rejected.
func (s *AccountService) CompleteReset(ctx context.Context, resetSessionID, newPassword, confirmPassword string) error {
	if resetSessionID == "" {
		return ErrInvalidOrExpiredToken
	}

	rs, err := s.resetSessions.Get(ctx, resetSessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("load reset session: %w", err)
	}
	at := s.now()
	if !rs.ExpiresAt.After(at) {
		return ErrInvalidOrExpiredToken
	}

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	account, err := s.accounts.GetByID(ctx, rs.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("load account: %w", err)
	}
	// Every session opened from one link dies once that link's account state has moved on.
	if rs.Fingerprint != s.tokens.Fingerprint(*account, domain.TokenPurposeReset) {
		_, _ = s.resetSessions.Consume(ctx, resetSessionID)
		return ErrInvalidOrExpiredToken
	}

	if err := s.policy.Validate(newPassword, account.Email, account.Username); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	if _, err := s.resetSessions.Consume(ctx, resetSessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("consume reset session: %w", err)
	}

	return s.setPassword(ctx, *account, newPassword, "", "password_reset")
}

// ChangePassword replaces the password of a logged-in account. Sessions other than
// currentSessionID are revoked.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, currentSessionID, currentPassword, newPassword, confirmPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("load account: %w", err)
	}

	if !account.HasPassword() {
		return ErrInvalidCurrentPassword
	}
	ok, err := s.hasher.Verify(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCurrentPassword
	}

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := security.RequireDifferentFrom(currentPassword).Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}
	if err := s.policy.Validate(newPassword, account.Email, account.Username); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	return s.setPassword(ctx, *account, newPassword, currentSessionID, "self")
}

func (s *AccountService) setPassword(ctx context.Context, account domain.Account, password, keepSessionID, changedBy string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	at := s.now()
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	revoked, err := s.sessions.DeleteAllForAccount(ctx, account.ID, keepSessionID)
	if err != nil {
		s.log(ctx).Error("revoke sessions after password change failed", zap.String("account_id", account.ID), zap.Error(err))
	}

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:         uuid.NewString(),
			AccountID:       account.ID,
			ChangedAt:       at,
			ChangedBy:       changedBy,
			SessionsRevoked: revoked,
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.log(ctx).Warn("publish password changed event failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	return nil
}

// AccountView is the caller's own account with its profile.
type AccountView struct {
	Account domain.Account
	Profile domain.Profile
}

// CurrentAccount returns the principal's account and profile.
func (s *AccountService) CurrentAccount(ctx context.Context, principal *domain.Principal) (AccountView, error) {
	if principal == nil {
		return AccountView{}, ErrForbidden
	}

	account, err := s.accounts.GetByID(ctx, principal.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AccountView{}, ErrAccountNotFound
		}
		return AccountView{}, fmt.Errorf("load account: %w", err)
	}
	profile, err := s.Profile(ctx, principal, account.ID)
	if err != nil {
		return AccountView{}, err
	}

	account.PasswordHash = ""
	return AccountView{Account: *account, Profile: profile}, nil
}

// Profile returns the profile owned by ownerID when the principal may view it.
func (s *AccountService) Profile(ctx context.Context, principal *domain.Principal, ownerID string) (domain.Profile, error) {
	if !domain.CanView(principal, ownerID) {
		return domain.Profile{}, ErrForbidden
	}

	profile, err := s.profiles.GetByAccountID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Profile{}, ErrAccountNotFound
		}
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return *profile, nil
}

func (s *AccountService) sendActivation(ctx context.Context, account domain.Account) {
	issued, err := s.tokens.IssueFor(account, domain.TokenPurposeActivation)
	if err != nil {
		s.log(ctx).Error("issue activation token failed", zap.String("account_id", account.ID), zap.Error(err))
		return
	}

	s.notify(ctx, domain.Notification{
		ID:       uuid.NewString(),
		To:       account.Email,
		Template: domain.TemplateAccountActivation,
		Context: map[string]string{
			"username":   account.Username,
			"link":       s.opts.BaseURL + activationPath + issued.Value,
			"expires_at": issued.ExpiresAt.Format(time.RFC3339),
		},
		QueuedAt: s.now(),
	})
}

// notify hands a message to the notifier. Failures are logged and counted only.
func (s *AccountService) notify(ctx context.Context, n domain.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.metrics.IncNotification(n.Template, "enqueue_failed")
		s.log(ctx).Error("queue notification failed",
			zap.String("template", n.Template),
			zap.String("to", logger.MaskEmail(n.To)),
			zap.Error(err),
		)
		return
	}
	s.metrics.IncNotification(n.Template, "queued")
}

func (s *AccountService) publishRegistered(ctx context.Context, account domain.Account, reissued bool) {
	if s.events == nil {
		return
	}
	event := domain.AccountRegisteredEvent{
		EventID:      uuid.NewString(),
		AccountID:    account.ID,
		Username:     account.Username,
		Email:        account.Email,
		AuthSource:   account.AuthSource,
		RegisteredAt: s.now(),
		Reissued:     reissued,
	}
	if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
		s.log(ctx).Warn("publish account registered event failed", zap.String("account_id", account.ID), zap.Error(err))
	}
}
