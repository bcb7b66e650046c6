package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/transport/http/middleware"
	"github.com/Surajgupta63/GKart/internal/usecase"
)

// AuthService is the part of the account service used by login endpoints.
type AuthService interface {
	Login(ctx context.Context, in usecase.LoginInput, rc domain.RequestContext) (usecase.LoginResult, error)
	SocialSignIn(ctx context.Context, login usecase.SocialLogin, rc domain.RequestContext, next string) (usecase.LoginResult, usecase.Resolution, error)
	Logout(ctx context.Context, sessionID string) error
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Kind: "invalid_credentials", Message: "invalid login credentials"},
	{Err: usecase.ErrReconciliationFailure, Status: http.StatusServiceUnavailable, Kind: "reconciliation_failed", Message: "login could not be completed, please try again"},
}

var socialErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidSocialLogin, Status: http.StatusBadRequest, Kind: "invalid_social_login", Message: "the provider did not return a usable identity"},
	{Err: usecase.ErrReconciliationFailure, Status: http.StatusServiceUnavailable, Kind: "reconciliation_failed", Message: "login could not be completed, please try again"},
}

// AuthHandler exposes login, social sign-in and logout.
type AuthHandler struct {
	auth    AuthService
	cookies middleware.CookieSettings
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth AuthService, cookies middleware.CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

// RegisterRoutes binds authentication endpoints. loginMiddlewares guard both login forms.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	r.POST("/login", append(append([]gin.HandlerFunc{}, loginMiddlewares...), h.Login)...)
	r.POST("/social/callback", append(append([]gin.HandlerFunc{}, loginMiddlewares...), h.SocialCallback)...)
	r.POST("/logout", middleware.RequireAuth(), h.Logout)
}

// Login authenticates with email and password, opens a session and reconciles the guest cart.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}
	if req.Next == "" {
		req.Next = c.Query("next")
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Next:     req.Next,
	}, middleware.RequestContextFrom(c))
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "failed to log in")
		return
	}

	h.cookies.SetSession(c, result.Session.ID)
	h.cookies.RotateCart(c)
	c.JSON(http.StatusOK, DataResponse{Data: newLoginResponse(result)})
}

// SocialCallback signs in with an identity asserted by a provider.
func (h *AuthHandler) SocialCallback(c *gin.Context) {
	var req SocialCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	result, resolution, err := h.auth.SocialSignIn(c.Request.Context(), usecase.SocialLogin{
		Provider:       req.Provider,
		ProviderUserID: req.ProviderUserID,
		Email:          req.Email,
		Name:           req.Name,
		PictureURL:     req.PictureURL,
	}, middleware.RequestContextFrom(c), req.Next)
	if err != nil {
		RespondWithMappedError(c, err, socialErrorCases, http.StatusInternalServerError, "failed to sign in")
		return
	}

	h.cookies.SetSession(c, result.Session.ID)
	h.cookies.RotateCart(c)
	resp := newLoginResponse(result)
	resp.Outcome = string(resolution.Outcome)
	c.JSON(http.StatusOK, DataResponse{Data: resp})
}

// Logout ends the current session and clears the session and cart cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to log out")
		return
	}

	h.cookies.ClearSession(c)
	c.JSON(http.StatusOK, DataResponse{Data: MessageResponse{Message: "You are logged out."}})
}
