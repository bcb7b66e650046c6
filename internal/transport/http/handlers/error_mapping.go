package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Surajgupta63/GKart/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status, a stable kind and a response message.
// An empty Message echoes the error text.
type ErrorCase struct {
	Err     error
	Status  int
	Kind    string
	Message string
}

// commonErrorCases apply to every endpoint after the endpoint specific cases.
var commonErrorCases = []ErrorCase{
	{Err: usecase.ErrRateLimited, Status: http.StatusTooManyRequests, Kind: "rate_limited", Message: "too many requests, please try again later"},
	{Err: usecase.ErrForbidden, Status: http.StatusForbidden, Kind: "forbidden", Message: "you do not have access to this resource"},
	{Err: usecase.ErrSessionNotFound, Status: http.StatusUnauthorized, Kind: "unauthenticated", Message: "authentication required"},
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Kind: "invalid_input"},
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
// Unmapped errors are attached to the gin context for the access log and never echoed.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	var vErr *usecase.ValidationError
	if errors.As(err, &vErr) {
		resp := NewErrorResponse(c, "invalid_input", "invalid input")
		resp.Fields = vErr.FieldMessages()
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	for _, list := range [][]ErrorCase{cases, commonErrorCases} {
		for _, cs := range list {
			if cs.Err == nil || !errors.Is(err, cs.Err) {
				continue
			}
			message := cs.Message
			if message == "" {
				message = err.Error()
			}
			c.JSON(cs.Status, NewErrorResponse(c, cs.Kind, message))
			return
		}
	}

	_ = c.Error(err)
	c.JSON(fallbackStatus, NewErrorResponse(c, "internal", fallbackMessage))
}

func respondInvalidPayload(c *gin.Context) {
	c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid_input", "malformed request body"))
}
