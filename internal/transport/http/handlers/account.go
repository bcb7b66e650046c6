package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/transport/http/middleware"
	"github.com/Surajgupta63/GKart/internal/usecase"
)

// ProfileService is the read side of the account service.
type ProfileService interface {
	CurrentAccount(ctx context.Context, principal *domain.Principal) (usecase.AccountView, error)
	Profile(ctx context.Context, principal *domain.Principal, ownerID string) (domain.Profile, error)
}

var profileErrorCases = []ErrorCase{
	{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Kind: "account_not_found", Message: "account does not exist"},
}

// AccountHandler serves the logged-in account and profiles.
type AccountHandler struct {
	profiles ProfileService
}

func NewAccountHandler(profiles ProfileService) *AccountHandler {
	return &AccountHandler{profiles: profiles}
}

// RegisterRoutes binds account endpoints. All of them require a session.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", middleware.RequireAuth(), h.Me)
	r.GET("/:id/profile", middleware.RequireAuth(), h.Profile)
}

// Me returns the caller's account and profile.
func (h *AccountHandler) Me(c *gin.Context) {
	view, err := h.profiles.CurrentAccount(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		RespondWithMappedError(c, err, profileErrorCases, http.StatusInternalServerError, "failed to load account")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: AccountViewResponse{
		Account:        newAccountSummary(view.Account),
		Profile:        newProfilePayload(view.Profile),
		CanAddProducts: domain.CanAdd(middleware.GetPrincipal(c)),
	}})
}

// Profile returns a profile visible to the caller: their own, or any for staff.
func (h *AccountHandler) Profile(c *gin.Context) {
	profile, err := h.profiles.Profile(c.Request.Context(), middleware.GetPrincipal(c), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, profileErrorCases, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: newProfilePayload(profile)})
}
