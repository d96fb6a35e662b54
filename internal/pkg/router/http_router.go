package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/controllers"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/middleware"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply API-key auth globally as first middleware so every downstream
	// handler can read the user context.
	app.Use(middleware.APIKeyAuthMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Provider webhooks bypass user auth; they authenticate via signature.
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
