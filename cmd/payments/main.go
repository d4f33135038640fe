package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/vidpersona/payments/internal/pkg/cache"
	"github.com/vidpersona/payments/internal/pkg/database"
	"github.com/vidpersona/payments/internal/pkg/env"
	"github.com/vidpersona/payments/internal/pkg/logger"
	"github.com/vidpersona/payments/internal/pkg/router"
)

func main() {
	app := NewApplication()
	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4100"))
	logger.Get().Fatal("server stopped", zap.Error(app.Listen(addr)))
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		AppName:   "vidpersona-payments",
		BodyLimit: 1 << 20, // webhook payloads are small; 1 MiB is generous
	})

	// recovery and request logging
	app.Use(recover.New(), fiberlogger.New())

	// webhook endpoints are rate limited per provider conventions
	app.Use(limiter.New(limiter.Config{Max: 120}))

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
