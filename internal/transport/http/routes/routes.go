package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Surajgupta63/GKart/internal/infra/config"
	"github.com/Surajgupta63/GKart/internal/infra/telemetry"
	"github.com/Surajgupta63/GKart/internal/transport/http/handlers"
	"github.com/Surajgupta63/GKart/internal/transport/http/middleware"
)

// AccountAPI is everything the HTTP layer needs from the account service.
type AccountAPI interface {
	middleware.SessionAuthenticator
	handlers.RegistrationService
	handlers.AuthService
	handlers.PasswordService
	handlers.ProfileService
}

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Accounts AccountAPI
	Carts    handlers.CartService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config         *config.AppConfig
	Logger         *zap.Logger
	RateLimiter    *middleware.RateLimiter
	HTTPMetrics    *telemetry.RequestMetrics
	MetricsHandler http.Handler
	Services       ServiceSet
	Database       DatabaseChecker
	Cache          CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.Config.HTTP.TrustedProxies); err != nil {
		deps.Logger.Warn("invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	cookies := CookieSettings(deps.Config.Session)

	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.HTTP.AllowedOrigins))
	r.Use(middleware.RequestMetrics(deps.HTTPMetrics))
	r.Use(middleware.Sessions(deps.Services.Accounts, cookies, deps.Logger))
	r.Use(middleware.ActivityLog(deps.Logger, deps.Config.HTTP.ActivityPaths))

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))

	api := r.Group("/api/v1")
	{
		accountsGroup := api.Group("/accounts")

		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Accounts)
		registrationHandler.RegisterRoutes(accountsGroup, ipRateLimit(deps, "register_ip", deps.Config.RateLimit.RegisterMaxAttempts, deps.Config.RateLimit.WindowDuration)...)

		authHandler := handlers.NewAuthHandler(deps.Services.Accounts, cookies)
		authHandler.RegisterRoutes(accountsGroup, ipRateLimit(deps, "login_ip", deps.Config.RateLimit.LoginMaxAttempts, deps.Config.RateLimit.WindowDuration)...)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.Accounts, cookies)
		passwordHandler.RegisterRoutes(accountsGroup.Group("/password"),
			ipRateLimit(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts, deps.Config.RateLimit.PasswordResetWindow)...)

		accountHandler := handlers.NewAccountHandler(deps.Services.Accounts)
		accountHandler.RegisterRoutes(accountsGroup)

		cartHandler := handlers.NewCartHandler(deps.Services.Carts)
		cartHandler.RegisterRoutes(api.Group("/cart"))
	}

	return r
}

// CookieSettings maps session configuration onto the cookie helper.
func CookieSettings(cfg config.SessionSettings) middleware.CookieSettings {
	return middleware.CookieSettings{
		SessionName:  cfg.CookieName,
		CartName:     cfg.CartCookieName,
		ResetName:    cfg.ResetCookieName,
		Domain:       cfg.CookieDomain,
		Secure:       cfg.CookieSecure,
		SessionTTL:   cfg.TTL,
		ResetTTL:     cfg.ResetTTL,
		CartKeyBytes: cfg.AnonymousKeySize,
	}
}

func ipRateLimit(deps Dependencies, name string, limit int, window time.Duration) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
