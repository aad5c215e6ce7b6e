package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/garagekit/parking-service/internal/api/http/handlers"
	"github.com/garagekit/parking-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Cars           *handlers.CarsHandler
	Spots          *handlers.SpotsHandler
	Parking        *handlers.ParkingHandler
	AuthMiddleware *auth.AuthMiddleware
	// RateLimit guards the credential endpoints; nil disables it.
	RateLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes at the root and again under /api.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	registerAPI(app, cfg)
	registerAPI(app.Group("/api"), cfg)
}

func registerAPI(r fiber.Router, cfg RouteConfig) {
	requireUser := cfg.AuthMiddleware.Handle

	authGroup := r.Group("/auth")
	if cfg.RateLimit != nil {
		authGroup.Post("/register", cfg.RateLimit, cfg.Auth.Register)
		authGroup.Post("/login", cfg.RateLimit, cfg.Auth.Login)
	} else {
		authGroup.Post("/register", cfg.Auth.Register)
		authGroup.Post("/login", cfg.Auth.Login)
	}
	authGroup.Get("/me", requireUser, cfg.Auth.Me)

	cars := r.Group("/cars", requireUser)
	cars.Get("/", cfg.Cars.ListCars)
	cars.Post("/", cfg.Cars.AddCar)
	cars.Delete("/:id", cfg.Cars.DeleteCar)

	r.Get("/spots/available", cfg.Spots.Available)

	parking := r.Group("/parking", requireUser)
	parking.Post("/", cfg.Parking.Park)
	parking.Post("/park", cfg.Parking.Park)
	parking.Get("/active", cfg.Parking.Active)
	parking.Post("/:sessionId/leave", cfg.Parking.Leave)
}
