package events

import "time"

// EventType enumerates supported event identifiers. Values double as AMQP
// routing keys.
type EventType string

const (
	EventSessionStarted EventType = "parking.session.started"
	EventSessionEnded   EventType = "parking.session.ended"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"sessionId"`
	UserID    string      `json:"userId"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionPayload describes the session a parking event refers to.
type SessionPayload struct {
	CarID        string     `json:"carId,omitempty"`
	LicensePlate string     `json:"licensePlate,omitempty"`
	SpotID       string     `json:"spotId"`
	Floor        int        `json:"floor"`
	SpotNumber   int        `json:"spotNumber"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
}
