package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/service"
)

type Options struct {
	// CORSOrigins is a comma separated origin list, "*" for any.
	CORSOrigins string
}

// NewApp builds the fiber app with the middleware stack and all routes.
func NewApp(svcs *service.Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "hydro-systems",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(RequestLogger())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: origins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	Register(app, svcs)
	return app
}
