package dto

import "github.com/garagekit/parking-service/internal/domain"

// CarRequest payload for registering a car.
type CarRequest struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color"`
}

// CarResponse is the public view of a car.
type CarResponse struct {
	ID           string `json:"id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color"`
}

func NewCarResponse(c domain.Car) CarResponse {
	return CarResponse{ID: c.ID, Make: c.Make, Model: c.Model, LicensePlate: c.LicensePlate, Color: c.Color}
}

func NewCarList(cars []domain.Car) []CarResponse {
	items := make([]CarResponse, 0, len(cars))
	for _, c := range cars {
		items = append(items, NewCarResponse(c))
	}
	return items
}
