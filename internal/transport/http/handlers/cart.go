package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/transport/http/middleware"
	"github.com/Surajgupta63/GKart/internal/usecase"
)

// CartService manages the cart of the current visitor.
type CartService interface {
	AddItem(ctx context.Context, owner domain.CartOwner, in usecase.AddItemInput) (domain.CartItem, error)
	Items(ctx context.Context, owner domain.CartOwner) ([]domain.CartItem, error)
	RemoveItem(ctx context.Context, owner domain.CartOwner, itemID string) error
}

var cartErrorCases = []ErrorCase{
	{Err: usecase.ErrCartItemNotFound, Status: http.StatusNotFound, Kind: "cart_item_not_found", Message: "cart item not found"},
}

// CartHandler exposes the cart of the logged-in account or the anonymous browser session.
type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.POST("/items", h.Add)
	r.DELETE("/items/:id", h.Remove)
}

func (h *CartHandler) owner(c *gin.Context) (domain.CartOwner, bool) {
	owner := domain.CartOwnerFor(middleware.RequestContextFrom(c))
	if !owner.IsAccount() && owner.SessionKey == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid_input", "cart session is missing"))
		return owner, false
	}
	return owner, true
}

// List returns the active items of the visitor's cart.
func (h *CartHandler) List(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	items, err := h.carts.Items(c.Request.Context(), owner)
	if err != nil {
		RespondWithMappedError(c, err, cartErrorCases, http.StatusInternalServerError, "failed to load cart")
		return
	}

	resp := CartResponse{Items: make([]CartItemPayload, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, newCartItemPayload(item))
		resp.TotalItems += item.Quantity
	}
	c.JSON(http.StatusOK, DataResponse{Data: resp})
}

// Add puts a product selection into the cart, merging with an identical line.
func (h *CartHandler) Add(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c)
		return
	}

	item, err := h.carts.AddItem(c.Request.Context(), owner, usecase.AddItemInput{
		ProductID:  req.ProductID,
		Variations: req.Variations,
		Quantity:   req.Quantity,
	})
	if err != nil {
		RespondWithMappedError(c, err, cartErrorCases, http.StatusInternalServerError, "failed to add cart item")
		return
	}

	c.JSON(http.StatusCreated, DataResponse{Data: newCartItemPayload(item)})
}

func (h *CartHandler) Remove(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.carts.RemoveItem(c.Request.Context(), owner, c.Param("id")); err != nil {
		RespondWithMappedError(c, err, cartErrorCases, http.StatusInternalServerError, "failed to remove cart item")
		return
	}

	c.Status(http.StatusNoContent)
}
