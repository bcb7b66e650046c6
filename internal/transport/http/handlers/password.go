package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/transport/http/middleware"
	"github.com/Surajgupta63/GKart/internal/usecase"
)

// PasswordService is the part of the account service used by password endpoints.
type PasswordService interface {
	RequestPasswordReset(ctx context.Context, email string, rc domain.RequestContext) error
	ValidateResetToken(ctx context.Context, token string) (domain.ResetSession, error)
	CompleteReset(ctx context.Context, resetSessionID, newPassword, confirmPassword string) error
	ChangePassword(ctx context.Context, accountID, currentSessionID, currentPassword, newPassword, confirmPassword string) error
}

var forgotErrorCases = []ErrorCase{
	{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Kind: "account_not_found", Message: "Account does not exist!"},
}

var resetErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidOrExpiredToken, Status: http.StatusBadRequest, Kind: "invalid_or_expired_link", Message: "this link has expired"},
	{Err: usecase.ErrPasswordMismatch, Status: http.StatusBadRequest, Kind: "password_mismatch", Message: "passwords do not match"},
	{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Kind: "weak_password"},
}

var changeErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCurrentPassword, Status: http.StatusBadRequest, Kind: "invalid_current_password", Message: "please enter a valid current password"},
	{Err: usecase.ErrPasswordMismatch, Status: http.StatusBadRequest, Kind: "password_mismatch", Message: "passwords do not match"},
	{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Kind: "weak_password"},
	{Err: usecase.ErrAccountNotFound, Status: http.StatusUnauthorized, Kind: "unauthenticated", Message: "authentication required"},
}

// PasswordHandler exposes password recovery and password change endpoints.
type PasswordHandler struct {
	passwords PasswordService
	cookies   middleware.CookieSettings
}

func NewPasswordHandler(passwords PasswordService, cookies middleware.CookieSettings) *PasswordHandler {
	return &PasswordHandler{passwords: passwords, cookies: cookies}
}

// RegisterRoutes binds password endpoints. forgotMiddlewares guard the reset request.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, forgotMiddlewares ...gin.HandlerFunc) {
	r.POST("/forgot", append(append([]gin.HandlerFunc{}, forgotMiddlewares...), h.Forgot)...)
	r.GET("/reset/:token", h.ValidateReset)
	r.POST("/reset", h.Reset)
	r.POST("/change", middleware.RequireAuth(), h.Change)
}

// Forgot emails a reset link to an active account.
func (h *PasswordHandler) Forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	if err := h.passwords.RequestPasswordReset(c.Request.Context(), req.Email, middleware.RequestContextFrom(c)); err != nil {
		RespondWithMappedError(c, err, forgotErrorCases, http.StatusInternalServerError, "failed to request password reset")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: MessageResponse{Message: "Password reset email has been sent to your email address."}})
}

// ValidateReset verifies the emailed link and hands the browser a reset session cookie.
func (h *PasswordHandler) ValidateReset(c *gin.Context) {
	session, err := h.passwords.ValidateResetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		RespondWithMappedError(c, err, resetErrorCases, http.StatusInternalServerError, "failed to validate reset link")
		return
	}

	h.cookies.SetReset(c, session.ID)
	c.JSON(http.StatusOK, DataResponse{Data: MessageResponse{Message: "Please reset your password"}})
}

// Reset sets the new password for the account bound to the reset session cookie.
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	err := h.passwords.CompleteReset(c.Request.Context(), h.cookies.ResetSessionID(c), req.Password, req.ConfirmPassword)
	if err != nil {
		RespondWithMappedError(c, err, resetErrorCases, http.StatusInternalServerError, "failed to reset password")
		return
	}

	h.cookies.ClearReset(c)
	c.JSON(http.StatusOK, DataResponse{Data: MessageResponse{Message: "Password reset successful"}})
}

// Change replaces the password of the logged-in account. The current session stays valid.
func (h *PasswordHandler) Change(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	principal := middleware.GetPrincipal(c)
	err := h.passwords.ChangePassword(c.Request.Context(), principal.AccountID, middleware.GetSessionID(c),
		req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		RespondWithMappedError(c, err, changeErrorCases, http.StatusInternalServerError, "failed to change password")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: MessageResponse{Message: "Password updated successfully."}})
}
