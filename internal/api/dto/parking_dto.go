package dto

import (
	"time"

	"github.com/garagekit/parking-service/internal/domain"
)

// ParkRequest payload for parking a car. Floor and spot number are
// optional; omitted values are auto-assigned.
type ParkRequest struct {
	CarID      string `json:"carId"`
	Floor      *int   `json:"floor"`
	SpotNumber *int   `json:"spotNumber"`
}

// SpotResponse is the public view of a parking spot.
type SpotResponse struct {
	ID         string `json:"id"`
	Floor      int    `json:"floor"`
	SpotNumber int    `json:"spotNumber"`
	Occupied   bool   `json:"occupied"`
}

// SessionResponse is a parking session with its car and spot.
type SessionResponse struct {
	ParkingSessionID string       `json:"parkingSessionId"`
	Car              *CarResponse `json:"car"`
	Spot             SpotResponse `json:"spot"`
	StartTime        time.Time    `json:"startTime"`
	EndTime          *time.Time   `json:"endTime,omitempty"`
	Active           bool         `json:"active"`
}

func NewSpotResponse(s domain.ParkingSpot) SpotResponse {
	return SpotResponse{ID: s.ID, Floor: s.Floor, SpotNumber: s.SpotNumber, Occupied: s.Occupied}
}

func NewSpotList(spots []domain.ParkingSpot) []SpotResponse {
	items := make([]SpotResponse, 0, len(spots))
	for _, s := range spots {
		items = append(items, NewSpotResponse(s))
	}
	return items
}

// NewSessionResponse renders a session view. Car is null when the car
// has since been deleted.
func NewSessionResponse(v domain.SessionView) SessionResponse {
	resp := SessionResponse{
		ParkingSessionID: v.Session.ID,
		Spot:             NewSpotResponse(v.Spot),
		StartTime:        v.Session.StartTime,
		EndTime:          v.Session.EndTime,
		Active:           v.Session.Active,
	}
	if v.Car.ID != "" {
		car := NewCarResponse(v.Car)
		resp.Car = &car
	}
	return resp
}

func NewSessionList(views []domain.SessionView) []SessionResponse {
	items := make([]SessionResponse, 0, len(views))
	for _, v := range views {
		items = append(items, NewSessionResponse(v))
	}
	return items
}
