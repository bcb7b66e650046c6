package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Surajgupta63/GKart/internal/core/domain"
	"github.com/Surajgupta63/GKart/internal/core/port"
	"github.com/Surajgupta63/GKart/internal/infra/config"
	"github.com/Surajgupta63/GKart/internal/infra/database"
	kafkainfra "github.com/Surajgupta63/GKart/internal/infra/kafka"
	"github.com/Surajgupta63/GKart/internal/infra/logger"
	redisinfra "github.com/Surajgupta63/GKart/internal/infra/redis"
	"github.com/Surajgupta63/GKart/internal/infra/security"
	"github.com/Surajgupta63/GKart/internal/infra/telemetry"
	postgresrepo "github.com/Surajgupta63/GKart/internal/repository/postgres"
	redisrepo "github.com/Surajgupta63/GKart/internal/repository/redis"
	transportgrpc "github.com/Surajgupta63/GKart/internal/transport/grpc"
	grpcinterceptors "github.com/Surajgupta63/GKart/internal/transport/grpc/interceptors"
	"github.com/Surajgupta63/GKart/internal/transport/http/middleware"
	"github.com/Surajgupta63/GKart/internal/transport/http/routes"
	"github.com/Surajgupta63/GKart/internal/usecase"
)

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redisinfra.Client
	producer   *kafkainfra.Producer
	tracer     *telemetry.TracerProvider
	grpcServer *transportgrpc.Server
	grpcAddr   string
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env, cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	identityMetrics, err := telemetry.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	httpMetrics, err := telemetry.NewRequestMetrics(registry, "http", nil)
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}
	grpcMetrics, err := telemetry.NewRequestMetrics(registry, "grpc", nil)
	if err != nil {
		return nil, fmt.Errorf("init grpc metrics: %w", err)
	}

	if cfg.Postgres.AutoMigrate {
		if err := database.RunMigrations(cfg.Postgres.DSN(), log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	signer, err := security.NewActionTokenSigner(cfg.Tokens.Secret, cfg.Tokens.Issuer)
	if err != nil {
		return nil, cleanup(fmt.Errorf("init token signer: %w", err), pool, redisClient)
	}

	hasher, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, cleanup(fmt.Errorf("configure argon2: %w", err), pool, redisClient)
	}

	passwordPolicy := security.NewPasswordPolicy(security.PasswordPolicyConfig{
		MinLength:        cfg.Password.MinLength,
		MinClasses:       cfg.Password.MinClasses,
		MinStrengthScore: cfg.Password.MinStrengthScore,
	})

	var (
		eventPublisher port.EventPublisher
		notifier       port.Notifier
		producer       *kafkainfra.Producer
	)
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		}
	}
	if producer != nil {
		eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		notifier = kafkainfra.NewNotificationPublisher(producer)
		log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		log.Info("kafka disabled, events are logged and notifications dispatched in-process")
		eventPublisher = kafkainfra.NewStubPublisher(log)
		notifier = kafkainfra.NewStubNotifier(kafkainfra.NewLoggingDispatcher(log))
	}

	accounts := postgresrepo.NewAccountRepository(pool)
	profiles := postgresrepo.NewProfileRepository(pool)
	identities := postgresrepo.NewSocialIdentityRepository(pool)
	carts := postgresrepo.NewCartRepository(pool)

	sessionStore := redisrepo.NewSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix, cfg.Session.TTL)
	resetStore := redisrepo.NewResetSessionStore(redisClient.Client(), cfg.Redis.ResetSessionPrefix)

	rateLimitWindow := max(cfg.RateLimit.WindowDuration, cfg.RateLimit.PasswordResetWindow, time.Minute)
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	tokenService := usecase.NewTokenService(signer, accounts, usecase.TokenServiceOptions{
		ActivationTTL: cfg.Tokens.ActivationTTL,
		ResetTTL:      cfg.Tokens.ResetTTL,
	})
	reconciler := usecase.NewCartReconciler(carts, eventPublisher, identityMetrics, log)
	resolver := usecase.NewSocialLinkResolver(accounts, identities, eventPublisher, identityMetrics, log)

	accountService := usecase.NewAccountService(usecase.AccountServiceDeps{
		Accounts:      accounts,
		Profiles:      profiles,
		Sessions:      sessionStore,
		ResetSessions: resetStore,
		Tokens:        tokenService,
		Hasher:        hasher,
		Policy:        passwordPolicy,
		Reconciler:    reconciler,
		Resolver:      resolver,
		Events:        eventPublisher,
		Notifier:      notifier,
		RateLimits:    rateLimitStore,
		Metrics:       identityMetrics,
	}, usecase.AccountServiceOptions{
		BaseURL:            cfg.App.BaseURL,
		SessionTTL:         cfg.Session.TTL,
		ResetSessionTTL:    cfg.Session.ResetTTL,
		ResetRequestLimit:  cfg.RateLimit.PasswordResetMaxAttempts,
		ResetRequestWindow: cfg.RateLimit.PasswordResetWindow,
		Degradation:        domain.NewDegradationPolicy(domain.ParseDegradationPolicyMode(cfg.Login.DegradationPolicy)),
	}).WithLogger(log)

	cartService := usecase.NewCartService(carts, log)

	grpcSrv, err := transportgrpc.NewServer(transportgrpc.ServerDependencies{
		Sessions: accountService,
		Logger:   log,
		Metrics:  grpcMetrics,
		Tracing:  grpcinterceptors.NewTracingInterceptor(grpcinterceptors.TracingOptions{Propagators: otel.GetTextMapPropagator()}),
		HealthChecks: map[string]transportgrpc.HealthCheck{
			"database": pool.Ping,
			"redis":    redisClient.HealthCheck,
		},
	})
	if err != nil {
		return nil, cleanup(fmt.Errorf("init grpc server: %w", err), pool, redisClient)
	}

	engine := routes.Register(routes.Dependencies{
		Config:         cfg,
		Logger:         log,
		RateLimiter:    rateLimiter,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Database:       pool,
		Cache:          redisClient,
		Services: routes.ServiceSet{
			Accounts: accountService,
			Carts:    cartService,
		},
	})

	return &Application{
		cfg:        cfg,
		engine:     engine,
		logger:     log,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		tracer:     tracer,
		grpcServer: grpcSrv,
		grpcAddr:   fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port),
	}, nil
}

func cleanup(err error, pool *pgxpool.Pool, redisClient *redisinfra.Client) error {
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pool != nil {
		pool.Close()
	}
	return err
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	grpcErrCh := make(chan error, 1)
	var grpcListener net.Listener
	if a.grpcServer != nil && a.grpcAddr != "" {
		lis, err := net.Listen("tcp", a.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		grpcListener = lis
		a.logger.Info("starting gRPC server",
			zap.String("address", a.grpcAddr),
		)
		go a.grpcServer.WatchHealth(ctx, 0)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("gRPC server panicked", zap.Any("panic", r))
					grpcErrCh <- fmt.Errorf("grpc server panicked: %v", r)
				}
			}()
			if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				a.logger.Error("gRPC server error", zap.Error(err))
				grpcErrCh <- fmt.Errorf("run grpc server: %w", err)
			} else {
				a.logger.Info("gRPC server stopped gracefully")
			}
		}()
	}
	defer func() {
		if grpcListener != nil {
			grpcListener.Close()
		}
		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.HTTP.ReadTimeout,
		WriteTimeout:      a.cfg.HTTP.WriteTimeout,
		IdleTimeout:       a.cfg.HTTP.IdleTimeout,
	}

	a.logger.Info("starting GKart identity API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}
		shutdownTimeout := a.cfg.HTTP.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-grpcErrCh:
		return err
	}
}
