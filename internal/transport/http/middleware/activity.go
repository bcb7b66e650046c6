package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appLogger "github.com/Surajgupta63/GKart/internal/infra/logger"
)

const anonymousVisitor = "Anonymous"

// ActivityLog records a page_view event for requests under the configured path prefixes.
// The client IP comes from gin's ClientIP, which only honours forwarding headers from
// the engine's trusted proxies.
func ActivityLog(log *zap.Logger, prefixes []string) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	tracked := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			tracked = append(tracked, p)
		}
	}

	return func(c *gin.Context) {
		c.Next()

		if !matchesPrefix(c.Request.URL.Path, tracked) {
			return
		}

		visitor := anonymousVisitor
		if p := GetPrincipal(c); p != nil {
			visitor = appLogger.MaskEmail(p.Email)
		}

		log.Info("page_view",
			zap.String("event", "page_view"),
			zap.String("user", visitor),
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", appLogger.RequestIDFromContext(c.Request.Context())),
		)
	}
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
