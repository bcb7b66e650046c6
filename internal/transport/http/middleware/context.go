package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/infra/logger"
)

const (
	// TraceIDHeader is the HTTP header name for trace ID
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the context key for trace ID
	TraceIDKey = "trace_id"
	// RequestIDKey is the context key for the request correlation id
	RequestIDKey = "request_id"

	principalKey = "principal"
	sessionIDKey = "session_id"
	cartKeyKey   = "cart_session_key"
)

// EnrichContext adds a trace ID to each request.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(c *gin.Context) string {
	return getString(c, TraceIDKey)
}

// GetPrincipal returns the authenticated caller, if any.
func GetPrincipal(c *gin.Context) *domain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*domain.Principal); ok {
			return p
		}
	}
	return nil
}

// GetSessionID returns the login session id attached by the Sessions middleware.
func GetSessionID(c *gin.Context) string {
	return getString(c, sessionIDKey)
}

// GetCartSessionKey returns the anonymous cart session key.
func GetCartSessionKey(c *gin.Context) string {
	return getString(c, cartKeyKey)
}

// RequestContextFrom builds the explicit per-request context handed to the core.
func RequestContextFrom(c *gin.Context) domain.RequestContext {
	return domain.RequestContext{
		RequestID:  logger.RequestIDFromContext(c.Request.Context()),
		SessionKey: GetCartSessionKey(c),
		SessionID:  GetSessionID(c),
		Principal:  GetPrincipal(c),
		ClientIP:   c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
}

func getString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
