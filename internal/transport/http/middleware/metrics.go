package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Surajgupta63/GKart/internal/infra/telemetry"
)

const unmatchedRoute = "unmatched"

var routeSurfaces = []struct {
	prefix  string
	surface string
}{
	{"/api/v1/accounts", telemetry.SurfaceIdentity},
	{"/api/v1/cart", telemetry.SurfaceCart},
	{"/healthz", telemetry.SurfaceOps},
	{"/readyz", telemetry.SurfaceOps},
	{"/metrics", telemetry.SurfaceOps},
}

// RequestMetrics records every request under its route template and storefront surface.
// Unmatched paths share one label so scanners cannot blow up cardinality.
func RequestMetrics(metrics *telemetry.RequestMetrics) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		done := metrics.Start(RouteSurface(route))

		c.Next()

		done(c.Request.Method+" "+route, StatusResult(c.Writer.Status()))
	}
}

// RouteSurface maps a route template to the storefront surface it serves.
func RouteSurface(route string) string {
	for _, rs := range routeSurfaces {
		if strings.HasPrefix(route, rs.prefix) {
			return rs.surface
		}
	}
	return telemetry.SurfaceOther
}

// StatusResult folds an HTTP status into a result class.
func StatusResult(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return telemetry.ResultRateLimited
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return telemetry.ResultDenied
	case status >= http.StatusInternalServerError:
		return telemetry.ResultError
	case status >= http.StatusBadRequest:
		return telemetry.ResultRejected
	default:
		return telemetry.ResultOK
	}
}
