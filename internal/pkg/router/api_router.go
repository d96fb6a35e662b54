package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/controllers"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Auth
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Get("/me", middleware.RequireAuth, controllers.HandleGetAccount)
	v1.Post("/me/api-key/rotate", middleware.RequireAuth, controllers.HandleRotateAPIKey)

	// Catalog (public)
	v1.Get("/products", controllers.HandleListProducts)
	v1.Get("/products/:uuid", controllers.HandleGetProduct)
	v1.Get("/artists/:slug", controllers.HandleGetArtistHub)
	v1.Get("/artists/:id/posts", controllers.HandleListArtistPosts)
	v1.Get("/artists/:id/events", controllers.HandleListArtistEvents)
	v1.Get("/events/:id", controllers.HandleGetEvent)

	// Fan actions
	v1.Post("/artists/:id/follow", middleware.RequireAuth, controllers.HandleToggleFollow)
	v1.Get("/feed", middleware.RequireAuth, controllers.HandleGetFeed)
	v1.Post("/events/:id/rsvp", middleware.RequireAuth, controllers.HandleRSVP)
	v1.Delete("/events/:id/rsvp", middleware.RequireAuth, controllers.HandleCancelRSVP)
	v1.Get("/me/rsvps", middleware.RequireAuth, controllers.HandleMyRSVPs)

	// Purchases and entitlements
	v1.Get("/me/purchases", middleware.RequireAuth, controllers.HandleMyPurchases)
	v1.Get("/orders/:id", middleware.RequireAuth, controllers.HandleGetOrder)
	v1.Get("/products/:id/download", middleware.RequireAuth, controllers.HandleDownloadProduct)
	v1.Get("/me/payment-methods", middleware.RequireAuth, controllers.HandleListPaymentMethods)

	// Artist hub management
	artist := v1.Group("/artist", middleware.RequireArtist)
	artist.Post("/profile", controllers.HandleCreateArtistProfile)
	artist.Put("/profile", controllers.HandleUpdateArtistProfile)
	artist.Post("/products", controllers.HandleCreateProduct)
	artist.Put("/products/:uuid", controllers.HandleUpdateProduct)
	artist.Delete("/products/:uuid", controllers.HandleDeleteProduct)
	artist.Post("/products/:uuid/file", controllers.HandleUploadDeliverable)
	artist.Post("/posts", controllers.HandleCreatePost)
	artist.Delete("/posts/:uuid", controllers.HandleDeletePost)
	artist.Post("/events", controllers.HandleCreateEvent)
	artist.Delete("/events/:id", controllers.HandleDeleteEvent)

	// Admin
	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Post("/orders/resync", controllers.HandleResyncOrder)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
