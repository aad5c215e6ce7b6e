package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/garagekit/parking-service/internal/api/dto"
	"github.com/garagekit/parking-service/internal/service"
	apperrors "github.com/garagekit/parking-service/pkg/util/errorutil"
)

// SpotsHandler serves spot availability.
type SpotsHandler struct {
	service *service.SpotService
}

// NewSpotsHandler constructs handler.
func NewSpotsHandler(spotService *service.SpotService) *SpotsHandler {
	return &SpotsHandler{service: spotService}
}

// Available GET /spots/available?floor=.
func (h *SpotsHandler) Available(c *fiber.Ctx) error {
	var floor *int
	if raw := c.Query("floor"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.NewValidationError("floor must be an integer", map[string]any{"floor": raw})
		}
		floor = &parsed
	}

	spots, err := h.service.ListAvailable(c.UserContext(), floor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSpotList(spots))
}
