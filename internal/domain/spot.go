package domain

import "time"

// ParkingSpot is a numbered location on one floor. (Floor, SpotNumber) is unique.
type ParkingSpot struct {
	ID               string
	Floor            int
	SpotNumber       int
	Occupied         bool
	CurrentSessionID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
