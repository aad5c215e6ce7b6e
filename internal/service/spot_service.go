package service

import (
	"context"
	"errors"

	"github.com/garagekit/parking-service/internal/domain"
	"github.com/garagekit/parking-service/internal/repository"
)

// SpotService answers availability queries over the garage's spots.
type SpotService struct {
	store repository.Store
}

// NewSpotService builds the service.
func NewSpotService(store repository.Store) *SpotService {
	return &SpotService{store: store}
}

// ListAvailable returns free spots ordered by floor and number, optionally
// restricted to one floor.
func (s *SpotService) ListAvailable(ctx context.Context, floor *int) ([]domain.ParkingSpot, error) {
	return s.store.Spots().ListAvailable(ctx, floor)
}

// FindByFloorAndNumber looks a spot up by its position in the garage.
func (s *SpotService) FindByFloorAndNumber(ctx context.Context, floor, number int) (*domain.ParkingSpot, error) {
	spot, err := s.store.Spots().GetByFloorAndNumber(ctx, floor, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSpotNotFound
	}
	return spot, err
}
