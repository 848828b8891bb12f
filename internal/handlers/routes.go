package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/metrics"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/account"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/directory"
)

type Deps struct {
	Auth      *auth.Service
	Accounts  *account.Service
	Directory *directory.Service
	Bookings  *booking.Service
	Hub       *realtime.Hub
	Log       *zap.Logger

	CORSOrigins string
	AccessLog   bool

	// Google sign-in is mounted only when Google is set.
	Google *GoogleOAuthHandler
}

// NewApp builds the fiber app with every route mounted.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "homeease-api",
		ErrorHandler: middleware.ErrorHandler(d.Log),
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}
	if d.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.ReplaceAll(d.CORSOrigins, " ", ""),
			AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	authMW := middleware.Authenticate(d.Auth, middleware.BearerToken)

	api := app.Group("/api")
	NewAuthHandler(d.Auth).Routes(api)
	if d.Google != nil {
		d.Google.Routes(api)
	}
	NewUserHandler(d.Accounts).Routes(api, authMW)
	NewWorkerDashboardHandler(d.Bookings).Routes(api, authMW)
	NewWorkerHandler(d.Directory).Routes(api, authMW)
	NewBookingHandler(d.Bookings).Routes(api, authMW)
	NewCatalogHandler(d.Directory).Routes(api)

	if d.Hub != nil {
		NewRealtimeHandler(d.Hub).Routes(app, d.Auth)
	}
	return app
}
