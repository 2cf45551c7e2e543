// AngelaMos | 2026
// main.go

package main

import (
	"cmp"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carterperez-dev/retail-backend/internal/admin"
	"github.com/carterperez-dev/retail-backend/internal/audit"
	"github.com/carterperez-dev/retail-backend/internal/auth"
	"github.com/carterperez-dev/retail-backend/internal/config"
	"github.com/carterperez-dev/retail-backend/internal/core"
	"github.com/carterperez-dev/retail-backend/internal/health"
	"github.com/carterperez-dev/retail-backend/internal/inventory"
	"github.com/carterperez-dev/retail-backend/internal/mail"
	"github.com/carterperez-dev/retail-backend/internal/middleware"
	"github.com/carterperez-dev/retail-backend/internal/organization"
	"github.com/carterperez-dev/retail-backend/internal/payment"
	"github.com/carterperez-dev/retail-backend/internal/role"
	"github.com/carterperez-dev/retail-backend/internal/server"
	"github.com/carterperez-dev/retail-backend/internal/tenant"
	"github.com/carterperez-dev/retail-backend/internal/user"
	"github.com/carterperez-dev/retail-backend/internal/webhook"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	auditQueue := audit.NewQueue(audit.NewRepository(db.DB), logger, audit.QueueConfig{
		Size:         cfg.Audit.QueueSize,
		Workers:      cfg.Audit.Workers,
		WriteTimeout: cfg.Audit.WriteTimeout,
		Registerer:   registry,
	})
	auditQueue.Start()

	mailer := mail.NewAsync(newMailSender(cfg, logger), logger, cfg.Mail.Timeout, 4)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	userRepo := user.NewRepository(db.DB)
	authSvc := auth.NewService(auth.ServiceDeps{
		Users:       userRepo,
		OTPs:        auth.NewOTPRepository(db.DB),
		Blacklist:   auth.NewBlacklistRepository(db.DB),
		Cache:       redis.Client,
		JWT:         jwtManager,
		Mailer:      mailer,
		OTP:         cfg.OTP,
		FrontendURL: cfg.App.FrontendURL,
		Logger:      logger,
	})
	authHandler := auth.NewHandler(authSvc)
	userSvc := user.NewService(authSvc, logger)

	gateway := payment.NewPaystackClient(cfg.Paystack)
	paymentSvc := payment.NewPaymentService(
		gateway,
		payment.NewPaymentRepository(db.DB),
		cfg.Paystack.CallbackURL,
		logger,
	)
	subscriptionSvc := payment.NewSubscriptionService(
		gateway,
		payment.NewSubscriptionRepository(db.DB),
		cfg.Paystack.CallbackURL,
		logger,
	)
	guard := middleware.NewGuard(auditQueue)
	paymentHandler := payment.NewHandler(paymentSvc, subscriptionSvc, guard)

	webhookHandler := webhook.NewHandler(
		cmp.Or(cfg.Paystack.WebhookSecret, cfg.Paystack.SecretKey),
		webhook.NewRepository(db.DB),
		paymentSvc,
		subscriptionSvc,
		webhook.NewMetrics(registry),
		logger,
	)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
		health.Dependency{Name: "audit_queue", Checker: auditQueue},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DB:         db,
		DBStats:    db.Stats,
		Redis:      redis,
		RedisStats: redis.PoolStats,
		AuditStats: auditQueue.Stats,
		Sweeper:    authSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.NewHTTPMetrics(registry).Handler)
	}
	router.Use(middleware.AuditErrors(auditQueue))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			SkipPaths: []string{"/healthz", "/readyz", "/livez", cfg.Metrics.Path, webhook.Path},
			FailOpen:  true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	webhookHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
		),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, authLimiter)

		user.RegisterRoutes(r, db.DB, userSvc, guard, authenticator)
		role.RegisterRoutes(r, db.DB, guard, authenticator)
		role.RegisterCatalogRoutes(r, guard, authenticator)
		tenant.RegisterRoutes(r, db.DB, guard, authenticator)
		organization.RegisterRoutes(r, db.DB, guard, authenticator)
		inventory.RegisterRoutes(r, db.DB, guard, authenticator)
		paymentHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, guard, authenticator)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := mailer.Wait(shutdownCtx); err != nil {
		logger.Error("mail drain error", "error", err)
	}

	if err := auditQueue.Shutdown(shutdownCtx); err != nil {
		logger.Error("audit queue shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func newMailSender(cfg *config.Config, logger *slog.Logger) mail.Sender {
	templates := mail.Templates{
		AppName:   cfg.App.Name,
		OTPExpiry: cfg.OTP.Expiry,
	}
	if cfg.Mail.Driver == "smtp" {
		return mail.NewSMTPSender(cfg.Mail, templates)
	}
	return mail.NewLogSender(logger, templates)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
