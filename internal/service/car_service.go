package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/garagekit/parking-service/internal/domain"
	"github.com/garagekit/parking-service/internal/repository"
	apperrors "github.com/garagekit/parking-service/pkg/util/errorutil"
)

// CarInput carries the fields of a car being registered.
type CarInput struct {
	Make         string
	Model        string
	LicensePlate string
	Color        string
}

// CarService manages the cars owned by each user.
type CarService struct {
	store repository.Store
}

// NewCarService builds the service.
func NewCarService(store repository.Store) *CarService {
	return &CarService{store: store}
}

// ListCars returns the owner's cars in registration order.
func (s *CarService) ListCars(ctx context.Context, ownerID string) ([]domain.Car, error) {
	return s.store.Cars().ListByOwner(ctx, ownerID)
}

// AddCar registers a car for the owner. The plate is stored upper-cased
// and must not belong to any other car.
func (s *CarService) AddCar(ctx context.Context, ownerID string, in CarInput) (*domain.Car, error) {
	car := &domain.Car{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Make:         strings.TrimSpace(in.Make),
		Model:        strings.TrimSpace(in.Model),
		LicensePlate: domain.NormalizeLicensePlate(in.LicensePlate),
		Color:        strings.TrimSpace(in.Color),
	}
	if err := validateCar(car); err != nil {
		return nil, err
	}

	taken, err := s.store.Cars().ExistsByLicensePlate(ctx, car.LicensePlate)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrLicensePlateInUse
	}
	if err := s.store.Cars().Create(ctx, car); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrLicensePlateInUse
		}
		return nil, err
	}
	return car, nil
}

// DeleteCar removes an owned car that is not currently parked.
func (s *CarService) DeleteCar(ctx context.Context, ownerID, carID string) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Cars().GetForOwner(ctx, carID, ownerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCarNotFound
			}
			return err
		}
		parked, err := tx.Sessions().HasActiveForCar(ctx, carID)
		if err != nil {
			return err
		}
		if parked {
			return ErrCarParked
		}
		if err := tx.Cars().Delete(ctx, carID, ownerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCarNotFound
			}
			return err
		}
		return nil
	})
}

func validateCar(car *domain.Car) error {
	details := map[string]any{}
	if car.Make == "" {
		details["make"] = "required"
	}
	if car.Model == "" {
		details["model"] = "required"
	}
	if !domain.ValidLicensePlate(car.LicensePlate) {
		details["licensePlate"] = "must be 7 letters or digits"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid car", details)
	}
	return nil
}
