package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/qolzam/telar/apps/social/internal/cache"
	"github.com/qolzam/telar/apps/social/internal/middleware/requestid"
	"github.com/qolzam/telar/apps/social/internal/pkg/log"
)

// Config holds the HTTP surface settings
type Config struct {
	AppName   string
	WebDomain string
	// HealthCheck turns /health into a 503 when it fails
	HealthCheck func(ctx context.Context) error
	// Cache statistics are reported on /health when the cache is enabled
	Cache *cache.GenericCacheService
}

// New returns a fiber app with the shared error handler, panic recovery, CORS and request ids
func New(cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.WebDomain != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.WebDomain,
			AllowCredentials: true,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods:     "GET, POST, DELETE, OPTIONS",
		}))
	}

	app.Get("/health", health(cfg))
	return app
}

func health(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := fiber.Map{"status": "ok"}
		if cfg.Cache.IsEnabled() {
			body["cache"] = cfg.Cache.GetStats()
		}
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(c.UserContext()); err != nil {
				log.WarnWithContext(c.UserContext(), "Health check failed: %v", err)
				body["status"] = "unavailable"
				return c.Status(fiber.StatusServiceUnavailable).JSON(body)
			}
		}
		return c.JSON(body)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	log.ErrorWithContext(c.UserContext(), "Path: %s, Error: %v, Code: %d", c.Path(), err, code)

	if len(c.Response().Body()) > 0 {
		return nil
	}
	return c.Status(code).JSON(fiber.Map{
		"code":    "INTERNAL_ERROR",
		"message": err.Error(),
	})
}
