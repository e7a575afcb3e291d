package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Thierryn8n/MetalFly/internal/apps"
	"github.com/Thierryn8n/MetalFly/internal/apps/academy"
	"github.com/Thierryn8n/MetalFly/internal/apps/calculator"
	"github.com/Thierryn8n/MetalFly/internal/apps/clients"
	"github.com/Thierryn8n/MetalFly/internal/apps/orders"
	"github.com/Thierryn8n/MetalFly/internal/apps/store"
	"github.com/Thierryn8n/MetalFly/internal/authstore"
	"github.com/Thierryn8n/MetalFly/internal/config"
	"github.com/Thierryn8n/MetalFly/internal/database"
	"github.com/Thierryn8n/MetalFly/internal/handlers"
	"github.com/Thierryn8n/MetalFly/internal/localstore"
	"github.com/Thierryn8n/MetalFly/internal/logging"
	"github.com/Thierryn8n/MetalFly/internal/middleware"
	"github.com/Thierryn8n/MetalFly/internal/routes"
	"github.com/Thierryn8n/MetalFly/internal/session"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.AuthStoreAnonKey == "" {
		slog.Error("AUTH_STORE_ANON_KEY environment variable is required")
		os.Exit(1)
	}

	// Database (service-role connection)
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	// Migrate shared models
	if err := database.MigrateShared(); err != nil {
		slog.Error("shared migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Durable client-state cache. Redis when configured, in-process
	// memory otherwise (single-instance deployments).
	var kv localstore.Store
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		kv = localstore.NewRedis(redisClient)
		slog.Info("client-state cache on redis", "addr", cfg.RedisAddr)
	} else {
		kv = localstore.NewMemory()
		slog.Info("client-state cache in memory")
	}

	// Session manager: one controller per authenticated principal
	manager := session.NewManager(cfg.ControllerTTL, func(userID uuid.UUID, accessToken, refreshToken string) *session.ClientSession {
		authClient := authstore.NewClient(cfg.AuthStoreURL, cfg.AuthStoreAnonKey, accessToken, refreshToken)
		local := localstore.NewClientState(kv, userID.String(), cfg.SnapshotMaxAge)
		feed := session.NewFeed()
		nav := session.NewRedirectNavigator()

		ctrl := session.NewController(authClient, local, feed, nav)
		ctrl.BootstrapTimeout = cfg.BootstrapTimeout

		return &session.ClientSession{
			Controller: ctrl,
			Helper:     session.NewPersistenceHelper(ctrl, local),
			Feed:       feed,
			Nav:        nav,
		}
	})

	// Register plugins
	plugins := []apps.Plugin{
		calculator.New(),
		clients.New(),
		orders.New(),
		store.New(),
		academy.New(),
	}

	// Migrate plugin models
	for _, p := range plugins {
		if models := p.Models(); len(models) > 0 {
			if err := database.MigrateModels(models); err != nil {
				slog.Error("plugin migration failed", "plugin", p.ID(), "error", err)
				os.Exit(1)
			}
			slog.Info("plugin migrated", "plugin", p.ID(), "models", len(models))
		}
	}

	// Seed the motor catalog when empty
	if err := calculator.SeedMotors(database.DB); err != nil {
		slog.Error("motor seed failed", "error", err)
		os.Exit(1)
	}

	// Handlers
	sessionHandler := handlers.NewSessionHandler(manager)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, sessionHandler, plugins)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	manager.Close()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
