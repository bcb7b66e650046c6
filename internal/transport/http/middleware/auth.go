package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/infra/security"
	"github.com/Surajgupta63/GKart/internal/usecase"
)

const (
	defaultCartCookieMaxAge = 14 * 24 * time.Hour
	defaultCartKeyBytes     = 24
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, kind, message string) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		Kind:    kind,
		TraceID: GetTraceID(c),
	}
}

// SessionAuthenticator resolves a login session id into its session and account.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*domain.Session, *domain.Account, error)
}

// CookieSettings names and scopes the cookies carrying browser session state.
type CookieSettings struct {
	SessionName  string
	CartName     string
	ResetName    string
	Domain       string
	Secure       bool
	SessionTTL   time.Duration
	ResetTTL     time.Duration
	CartKeyBytes int
}

func (s CookieSettings) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", s.Domain, s.Secure, true)
}

func (s CookieSettings) clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", s.Domain, s.Secure, true)
}

// SetSession stores the login session id.
func (s CookieSettings) SetSession(c *gin.Context, sessionID string) {
	s.set(c, s.SessionName, sessionID, s.SessionTTL)
	c.Set(sessionIDKey, sessionID)
}

// RotateCart replaces the anonymous cart key after a login folded its items into the account.
func (s CookieSettings) RotateCart(c *gin.Context) {
	size := s.CartKeyBytes
	if size <= 0 {
		size = defaultCartKeyBytes
	}
	cartKey, err := security.GenerateSecureToken(size)
	if err != nil {
		s.clear(c, s.CartName)
		c.Set(cartKeyKey, "")
		return
	}
	s.set(c, s.CartName, cartKey, defaultCartCookieMaxAge)
	c.Set(cartKeyKey, cartKey)
}

// ClearSession drops the login session cookie and a fresh anonymous cart key is minted
// on the next request.
func (s CookieSettings) ClearSession(c *gin.Context) {
	s.clear(c, s.SessionName)
	s.clear(c, s.CartName)
}

// SetReset stores the reset session id granted by a verified reset link.
func (s CookieSettings) SetReset(c *gin.Context, resetSessionID string) {
	s.set(c, s.ResetName, resetSessionID, s.ResetTTL)
}

// ClearReset drops the reset session cookie.
func (s CookieSettings) ClearReset(c *gin.Context) {
	s.clear(c, s.ResetName)
}

// ResetSessionID reads the reset session cookie.
func (s CookieSettings) ResetSessionID(c *gin.Context) string {
	value, err := c.Cookie(s.ResetName)
	if err != nil {
		return ""
	}
	return value
}

// Sessions attaches the anonymous cart key and, when the login cookie names a live
// session, the authenticated principal. Invalid login cookies are cleared.
func Sessions(auth SessionAuthenticator, cookies CookieSettings, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if cookies.CartKeyBytes <= 0 {
		cookies.CartKeyBytes = defaultCartKeyBytes
	}

	return func(c *gin.Context) {
		cartKey, err := c.Cookie(cookies.CartName)
		if err != nil || cartKey == "" {
			cartKey, err = security.GenerateSecureToken(cookies.CartKeyBytes)
			if err != nil {
				log.Error("generate cart session key failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse(c, "internal", "internal server error"))
				return
			}
			cookies.set(c, cookies.CartName, cartKey, defaultCartCookieMaxAge)
		}
		c.Set(cartKeyKey, cartKey)

		sessionID, err := c.Cookie(cookies.SessionName)
		if err != nil || sessionID == "" || auth == nil {
			c.Next()
			return
		}

		session, account, err := auth.Authenticate(c.Request.Context(), sessionID)
		switch {
		case err == nil:
			principal := domain.PrincipalFromAccount(*account)
			c.Set(principalKey, &principal)
			c.Set(sessionIDKey, session.ID)
			cookies.set(c, cookies.SessionName, session.ID, cookies.SessionTTL)
		case errors.Is(err, usecase.ErrSessionNotFound):
			cookies.clear(c, cookies.SessionName)
		default:
			log.Warn("session lookup failed, continuing anonymously",
				zap.String("request_id", getString(c, RequestIDKey)),
				zap.Error(err))
		}

		c.Next()
	}
}

// RequireAuth rejects requests without an authenticated principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetPrincipal(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "unauthenticated", "authentication required"))
			return
		}
		c.Next()
	}
}
