package domain

import "time"

// ParkingSession records one car occupying one spot for a user.
//
// A session is either active with no end time, or closed with an end time.
// CarID is empty for closed sessions whose car was later deleted.
type ParkingSession struct {
	ID        string
	UserID    string
	CarID     string
	SpotID    string
	StartTime time.Time
	EndTime   *time.Time
	Active    bool
}

// Close marks the session as ended at the given instant.
func (s *ParkingSession) Close(at time.Time) {
	end := at
	s.EndTime = &end
	s.Active = false
}

// Consistent reports whether the active flag and end time agree.
func (s ParkingSession) Consistent() bool {
	return s.Active == (s.EndTime == nil)
}

// SessionView is a session joined with the car and spot it references.
type SessionView struct {
	Session ParkingSession
	Car     Car
	Spot    ParkingSpot
}
