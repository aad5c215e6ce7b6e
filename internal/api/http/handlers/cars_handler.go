package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/garagekit/parking-service/internal/api/dto"
	"github.com/garagekit/parking-service/internal/auth"
	"github.com/garagekit/parking-service/internal/service"
	apperrors "github.com/garagekit/parking-service/pkg/util/errorutil"
)

// CarsHandler manages the caller's cars.
type CarsHandler struct {
	service *service.CarService
}

// NewCarsHandler constructs handler.
func NewCarsHandler(carService *service.CarService) *CarsHandler {
	return &CarsHandler{service: carService}
}

// ListCars GET /cars.
func (h *CarsHandler) ListCars(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	cars, err := h.service.ListCars(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCarList(cars))
}

// AddCar POST /cars.
func (h *CarsHandler) AddCar(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CarRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	car, err := h.service.AddCar(c.UserContext(), principal.User.ID, service.CarInput{
		Make:         req.Make,
		Model:        req.Model,
		LicensePlate: req.LicensePlate,
		Color:        req.Color,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewCarResponse(*car))
}

// DeleteCar DELETE /cars/:id.
func (h *CarsHandler) DeleteCar(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.DeleteCar(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
