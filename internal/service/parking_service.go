package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garagekit/parking-service/internal/domain"
	"github.com/garagekit/parking-service/internal/events"
	"github.com/garagekit/parking-service/internal/repository"
	apperrors "github.com/garagekit/parking-service/pkg/util/errorutil"
)

// ParkInput selects the car to park and, optionally, the spot. With no
// floor and no number the first free spot is assigned; with only a floor,
// the first free spot on that floor.
type ParkInput struct {
	CarID      string
	Floor      *int
	SpotNumber *int
}

// ParkingService is the session ledger: it opens and closes parking
// sessions and keeps spot occupancy in step with them.
type ParkingService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewParkingService builds the service. dispatcher may be nil.
func NewParkingService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *ParkingService {
	return &ParkingService{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// ParkCar opens a session for one of the user's cars and marks the spot
// occupied, atomically. Of several callers racing for the same spot exactly
// one succeeds; the others get ErrSpotOccupied.
func (s *ParkingService) ParkCar(ctx context.Context, userID string, in ParkInput) (*domain.SessionView, error) {
	if err := validatePark(in); err != nil {
		return nil, err
	}

	var view domain.SessionView
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		car, err := tx.Cars().GetForOwner(ctx, in.CarID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrParkCarNotFound
			}
			return err
		}

		spot, err := resolveSpot(ctx, tx, in)
		if err != nil {
			return err
		}
		if spot.Occupied {
			return ErrSpotOccupied
		}

		parked, err := tx.Sessions().HasActiveForCar(ctx, car.ID)
		if err != nil {
			return err
		}
		if parked {
			return ErrCarAlreadyParked
		}

		now := s.now()
		session := domain.ParkingSession{
			ID:        uuid.NewString(),
			UserID:    userID,
			CarID:     car.ID,
			SpotID:    spot.ID,
			StartTime: now,
			Active:    true,
		}
		if err := tx.Spots().Claim(ctx, spot.ID, session.ID, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrSpotOccupied
			}
			return err
		}
		if err := tx.Sessions().Create(ctx, &session); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrCarAlreadyParked
			}
			return err
		}

		spot.Occupied = true
		spot.CurrentSessionID = &session.ID
		spot.UpdatedAt = now
		view = domain.SessionView{Session: session, Car: *car, Spot: *spot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSessionStarted, view)
	return &view, nil
}

// ListActiveSessions returns the user's open sessions, oldest first.
func (s *ParkingService) ListActiveSessions(ctx context.Context, userID string) ([]domain.SessionView, error) {
	return s.store.Sessions().ListActiveByUser(ctx, userID)
}

// LeaveSpot closes one of the user's active sessions and frees its spot.
func (s *ParkingService) LeaveSpot(ctx context.Context, userID, sessionID string) (*domain.SessionView, error) {
	var view domain.SessionView
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		session, err := tx.Sessions().GetForUser(ctx, sessionID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if !session.Active {
			return ErrSessionAlreadyClosed
		}

		now := s.now()
		if err := tx.Sessions().Close(ctx, session.ID, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrSessionAlreadyClosed
			}
			return err
		}
		if err := tx.Spots().Release(ctx, session.SpotID, session.ID, now); err != nil {
			return fmt.Errorf("release spot %s for session %s: %w", session.SpotID, session.ID, err)
		}
		session.Close(now)

		spot, err := tx.Spots().GetByID(ctx, session.SpotID)
		if err != nil {
			return err
		}
		view = domain.SessionView{Session: *session, Spot: *spot}
		if session.CarID != "" {
			car, err := tx.Cars().GetForOwner(ctx, session.CarID, userID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if car != nil {
				view.Car = *car
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSessionEnded, view)
	return &view, nil
}

func resolveSpot(ctx context.Context, tx repository.Store, in ParkInput) (*domain.ParkingSpot, error) {
	if in.Floor != nil && in.SpotNumber != nil {
		spot, err := tx.Spots().GetByFloorAndNumber(ctx, *in.Floor, *in.SpotNumber)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParkSpotNotFound
		}
		return spot, err
	}
	spot, err := tx.Spots().FirstAvailable(ctx, in.Floor)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSpotAvailable
	}
	return spot, err
}

func validatePark(in ParkInput) error {
	details := map[string]any{}
	if in.CarID == "" {
		details["carId"] = "required"
	}
	if in.Floor != nil && *in.Floor < 0 {
		details["floor"] = "must not be negative"
	}
	if in.SpotNumber != nil {
		if *in.SpotNumber < 1 {
			details["spotNumber"] = "must be positive"
		} else if in.Floor == nil {
			details["floor"] = "required when spotNumber is given"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid parking request", details)
	}
	return nil
}

// publish emits a session event after commit. Delivery failures are logged
// and never fail the request.
func (s *ParkingService) publish(ctx context.Context, eventType events.EventType, view domain.SessionView) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: view.Session.ID,
		UserID:    view.Session.UserID,
		Timestamp: s.now(),
		Payload: events.SessionPayload{
			CarID:        view.Session.CarID,
			LicensePlate: view.Car.LicensePlate,
			SpotID:       view.Spot.ID,
			Floor:        view.Spot.Floor,
			SpotNumber:   view.Spot.SpotNumber,
			StartTime:    view.Session.StartTime,
			EndTime:      view.Session.EndTime,
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish parking event failed",
			zap.String("event_type", string(eventType)),
			zap.String("session_id", view.Session.ID),
			zap.Error(err))
	}
}
