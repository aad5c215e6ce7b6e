package repository

import (
	"context"
	"errors"
	"time"

	"github.com/garagekit/parking-service/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional update matched no row
	// because the row is not in the expected state.
	ErrConflict = errors.New("conflict")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
)

// Store groups the repositories and the transaction boundary shared by them.
type Store interface {
	Users() UserRepository
	Cars() CarRepository
	Spots() SpotRepository
	Sessions() SessionRepository
	// WithinTx runs fn inside a single transaction. The Store passed to fn
	// is bound to that transaction; returning an error rolls everything back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// CarRepository stores cars scoped to their owner.
type CarRepository interface {
	Create(ctx context.Context, car *domain.Car) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Car, error)
	GetForOwner(ctx context.Context, id, ownerID string) (*domain.Car, error)
	Delete(ctx context.Context, id, ownerID string) error
	ExistsByLicensePlate(ctx context.Context, plate string) (bool, error)
}

// SpotRepository stores the garage's parking spots.
type SpotRepository interface {
	Count(ctx context.Context) (int, error)
	CreateBatch(ctx context.Context, spots []domain.ParkingSpot) (int, error)
	GetByID(ctx context.Context, id string) (*domain.ParkingSpot, error)
	GetByFloorAndNumber(ctx context.Context, floor, number int) (*domain.ParkingSpot, error)
	// ListAvailable returns free spots ordered by floor and number; a nil
	// floor means every floor.
	ListAvailable(ctx context.Context, floor *int) ([]domain.ParkingSpot, error)
	FirstAvailable(ctx context.Context, floor *int) (*domain.ParkingSpot, error)
	// Claim flips a free spot to occupied by sessionID. It returns
	// ErrConflict when the spot is already occupied.
	Claim(ctx context.Context, spotID, sessionID string, at time.Time) error
	// Release frees a spot held by sessionID. It returns ErrConflict when
	// the spot is not held by that session.
	Release(ctx context.Context, spotID, sessionID string, at time.Time) error
}

// SessionRepository stores parking sessions. Sessions are never deleted.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.ParkingSession) error
	GetForUser(ctx context.Context, id, userID string) (*domain.ParkingSession, error)
	ListActiveByUser(ctx context.Context, userID string) ([]domain.SessionView, error)
	HasActiveForCar(ctx context.Context, carID string) (bool, error)
	// Close ends an active session. It returns ErrConflict when the session
	// is already closed.
	Close(ctx context.Context, id string, at time.Time) error
}
