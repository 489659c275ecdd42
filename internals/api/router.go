package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func SetupRouter(app *fiber.App, handler *Handler) {

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// Routes
	v1 := app.Group("/v1")
	{
		v1.Get("/catalog", handler.GetCatalog)
		v1.Get("/search", handler.Search)
		v1.Get("/popular", handler.GetPopular)
		v1.Get("/convert", handler.Convert)
		v1.Get("/history", handler.GetHistory)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "UP"})
	})
}
