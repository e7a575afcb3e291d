package routes

import (
	"time"

	"github.com/Thierryn8n/MetalFly/internal/apps"
	"github.com/Thierryn8n/MetalFly/internal/config"
	"github.com/Thierryn8n/MetalFly/internal/handlers"
	"github.com/Thierryn8n/MetalFly/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	sessionHandler *handlers.SessionHandler,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (public)
	api.Get("/health", handlers.HealthCheck)

	// Session core (JWT required). Stricter limit: restore and refresh
	// reach the hosted auth store.
	sess := api.Group("/session", middleware.JWTProtected(cfg))
	sess.Use(limiter.New(limiter.Config{
		Max:               30,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	sess.Get("/state", sessionHandler.GetState)
	sess.Post("/refresh-profile", sessionHandler.RefreshProfile)
	sess.Post("/restore", sessionHandler.RestoreSession)
	sess.Post("/reset-attempts", sessionHandler.ResetAttempts)
	sess.Post("/sign-out", sessionHandler.SignOut)

	sess.Post("/cache", sessionHandler.CacheUserData)
	sess.Get("/cache", sessionHandler.CachedUserData)
	sess.Delete("/saved-data", sessionHandler.ClearSavedData)

	sess.Post("/location", sessionHandler.SaveLocation)
	sess.Get("/redirect", sessionHandler.Redirect)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))

	// Plugin routes under a JWT-protected group so public routes stay
	// unaffected
	protected := api.Group("/p", middleware.JWTProtected(cfg))
	for _, p := range plugins {
		p.RegisterRoutes(protected, db, cfg)
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin, db, cfg)
		}
	}
}
