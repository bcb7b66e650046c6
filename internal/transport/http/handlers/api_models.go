package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/transport/http/middleware"
	"github.com/Surajgupta63/GKart/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind"`
	Fields  map[string]string `json:"fields,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, kind, message string) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		Kind:    kind,
		TraceID: middleware.GetTraceID(c),
	}
}

// DataResponse wraps every successful payload.
type DataResponse struct {
	Data any `json:"data"`
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse lists the state of every dependency check.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// RegisterRequest is the self-registration form.
type RegisterRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	MobileNumber    string `json:"mobile_number"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r RegisterRequest) toInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		MobileNumber:    r.MobileNumber,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
	}
}

// ActivateResponse reports whether the link changed anything.
type ActivateResponse struct {
	Message       string `json:"message"`
	AlreadyActive bool   `json:"already_active"`
}

// LoginRequest carries credentials and the optional post-login target.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

// SocialCallbackRequest is the identity asserted by a provider callback.
type SocialCallbackRequest struct {
	Provider       string `json:"provider"`
	ProviderUserID string `json:"provider_user_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	PictureURL     string `json:"picture_url"`
	Next           string `json:"next"`
}

// AccountSummary is the public view of an account.
type AccountSummary struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	AuthSource  string     `json:"auth_source"`
	Provider    string     `json:"provider,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func newAccountSummary(a domain.Account) AccountSummary {
	return AccountSummary{
		ID:          a.ID,
		Email:       a.Email,
		Username:    a.Username,
		IsActive:    a.IsActive,
		IsStaff:     a.IsStaff,
		AuthSource:  string(a.AuthSource.Kind),
		Provider:    a.AuthSource.Provider,
		CreatedAt:   a.CreatedAt,
		LastLoginAt: a.LastLoginAt,
	}
}

// CartReconciliationSummary reports what happened to the guest cart at login.
type CartReconciliationSummary struct {
	Merged     int  `json:"merged"`
	Reassigned int  `json:"reassigned"`
	Degraded   bool `json:"degraded"`
}

// LoginResponse is returned by password and social login.
type LoginResponse struct {
	Account  AccountSummary            `json:"account"`
	Redirect string                    `json:"redirect"`
	Cart     CartReconciliationSummary `json:"cart"`
	Outcome  string                    `json:"outcome,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
}

func newLoginResponse(result usecase.LoginResult) LoginResponse {
	resp := LoginResponse{
		Account:  newAccountSummary(result.Account),
		Redirect: result.Redirect,
		Cart: CartReconciliationSummary{
			Merged:     result.Reconciliation.Merged,
			Reassigned: result.Reconciliation.Reassigned,
			Degraded:   result.Reconciliation.Failed(),
		},
	}
	if result.RedirectErr != nil {
		resp.Warnings = append(resp.Warnings, "unsafe redirect target ignored")
	}
	if result.Reconciliation.Failed() {
		resp.Warnings = append(resp.Warnings, "guest cart could not be merged")
	}
	return resp
}

// ForgotPasswordRequest starts password recovery.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes password recovery.
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePasswordRequest replaces the password of the logged-in account.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ProfilePayload is the public view of a profile.
type ProfilePayload struct {
	AccountID      string    `json:"account_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	FullName       string    `json:"full_name"`
	MobileNumber   string    `json:"mobile_number,omitempty"`
	AddressLine1   string    `json:"address_line_1,omitempty"`
	AddressLine2   string    `json:"address_line_2,omitempty"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Country        string    `json:"country,omitempty"`
	ProfilePicture string    `json:"profile_picture"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newProfilePayload(p domain.Profile) ProfilePayload {
	return ProfilePayload{
		AccountID:      p.AccountID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		FullName:       p.FullName(),
		MobileNumber:   p.MobileNumber,
		AddressLine1:   p.AddressLine1,
		AddressLine2:   p.AddressLine2,
		City:           p.City,
		State:          p.State,
		Country:        p.Country,
		ProfilePicture: p.ProfilePicture,
		UpdatedAt:      p.UpdatedAt,
	}
}

// AccountViewResponse is the caller's own account with its profile.
type AccountViewResponse struct {
	Account        AccountSummary `json:"account"`
	Profile        ProfilePayload `json:"profile"`
	CanAddProducts bool           `json:"can_add_products"`
}

// AddCartItemRequest adds a product selection to the cart.
type AddCartItemRequest struct {
	ProductID  string   `json:"product_id"`
	Variations []string `json:"variations"`
	Quantity   int      `json:"quantity"`
}

// CartItemPayload is one cart line.
type CartItemPayload struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Variations []string  `json:"variations"`
	Quantity   int       `json:"quantity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newCartItemPayload(item domain.CartItem) CartItemPayload {
	variations := item.Variations
	if variations == nil {
		variations = []string{}
	}
	return CartItemPayload{
		ID:         item.ID,
		ProductID:  item.ProductID,
		Variations: variations,
		Quantity:   item.Quantity,
		UpdatedAt:  item.UpdatedAt,
	}
}

// CartResponse lists the caller's cart.
type CartResponse struct {
	Items      []CartItemPayload `json:"items"`
	TotalItems int               `json:"total_items"`
}
