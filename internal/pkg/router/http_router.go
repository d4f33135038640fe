package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vidpersona/payments/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize webhook controller with repository and verifier
	controllers.InitializeWebhookController()

	webhooks := app.Group("/webhooks")
	webhooks.Options("/paypal", controllers.HandlePayPalWebhookOptions)
	webhooks.Post("/paypal", controllers.HandlePayPalWebhook)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
