package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/garagekit/parking-service/internal/api/dto"
	"github.com/garagekit/parking-service/internal/auth"
	"github.com/garagekit/parking-service/internal/service"
	apperrors "github.com/garagekit/parking-service/pkg/util/errorutil"
)

// ParkingHandler opens, lists and closes the caller's parking sessions.
type ParkingHandler struct {
	service *service.ParkingService
}

// NewParkingHandler constructs handler.
func NewParkingHandler(parkingService *service.ParkingService) *ParkingHandler {
	return &ParkingHandler{service: parkingService}
}

// Park POST /parking.
func (h *ParkingHandler) Park(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ParkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	view, err := h.service.ParkCar(c.UserContext(), principal.User.ID, service.ParkInput{
		CarID:      req.CarID,
		Floor:      req.Floor,
		SpotNumber: req.SpotNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewSessionResponse(*view))
}

// Active GET /parking/active.
func (h *ParkingHandler) Active(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	views, err := h.service.ListActiveSessions(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionList(views))
}

// Leave POST /parking/:sessionId/leave.
func (h *ParkingHandler) Leave(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	view, err := h.service.LeaveSpot(c.UserContext(), principal.User.ID, c.Params("sessionId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSessionResponse(*view))
}
