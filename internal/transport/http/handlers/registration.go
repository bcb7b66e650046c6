package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Surajgupta63/GKart/internal/usecase"
)

// RegistrationService is the part of the account service used by registration endpoints.
type RegistrationService interface {
	Register(ctx context.Context, in usecase.RegisterInput) (usecase.RegisterResult, error)
	Activate(ctx context.Context, token string) (usecase.ActivateResult, error)
}

var registrationErrorCases = []ErrorCase{
	{Err: usecase.ErrDuplicateActiveAccount, Status: http.StatusConflict, Kind: "duplicate_account", Message: "an account with this email already exists"},
	{Err: usecase.ErrPasswordMismatch, Status: http.StatusBadRequest, Kind: "password_mismatch", Message: "passwords do not match"},
	{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Kind: "weak_password"},
}

var activationErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidOrExpiredToken, Status: http.StatusBadRequest, Kind: "invalid_or_expired_link", Message: "invalid activation link"},
}

// RegistrationHandler exposes endpoints for account registration and activation.
type RegistrationHandler struct {
	registration RegistrationService
}

func NewRegistrationHandler(registration RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// RegisterRoutes binds registration endpoints.
func (h *RegistrationHandler) RegisterRoutes(r *gin.RouterGroup, registerMiddlewares ...gin.HandlerFunc) {
	r.POST("/register", append(append([]gin.HandlerFunc{}, registerMiddlewares...), h.Register)...)
	r.GET("/activate/:token", h.Activate)
}

// Register creates a pending account and sends the activation link.
// A pending account registering again gets the same response and a fresh link.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	result, err := h.registration.Register(c.Request.Context(), req.toInput())
	if err != nil {
		RespondWithMappedError(c, err, registrationErrorCases, http.StatusInternalServerError, "failed to register account")
		return
	}

	c.JSON(http.StatusCreated, DataResponse{Data: MessageResponse{Message: result.Message}})
}

// Activate follows the link from the activation email.
func (h *RegistrationHandler) Activate(c *gin.Context) {
	result, err := h.registration.Activate(c.Request.Context(), c.Param("token"))
	if err != nil {
		RespondWithMappedError(c, err, activationErrorCases, http.StatusInternalServerError, "failed to activate account")
		return
	}

	message := "Congratulations! Your account is activated."
	if result.AlreadyActive {
		message = "Your account is already active."
	}
	c.JSON(http.StatusOK, DataResponse{Data: ActivateResponse{
		Message:       message,
		AlreadyActive: result.AlreadyActive,
	}})
}
