package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/garagekit/parking-service/internal/config"
	"github.com/garagekit/parking-service/internal/domain"
	"github.com/garagekit/parking-service/internal/events"
	"github.com/garagekit/parking-service/internal/repository"
	apperrors "github.com/garagekit/parking-service/pkg/util/errorutil"
)

type testEnv struct {
	store   *repository.MemoryStore
	cars    *CarService
	spots   *SpotService
	parking *ParkingService
	events  *[]events.Event
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	layout, err := config.ParseGarageLayout(config.DefaultGarageLayout)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if _, err := NewSeeder(store, config.GarageConfig{Layout: layout}, zap.NewNop()).Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	published := []events.Event{}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	}
	dispatcher.Subscribe(events.EventSessionStarted, record)
	dispatcher.Subscribe(events.EventSessionEnded, record)

	return testEnv{
		store:   store,
		cars:    NewCarService(store),
		spots:   NewSpotService(store),
		parking: NewParkingService(store, dispatcher, zap.NewNop()),
		events:  &published,
	}
}

func (e testEnv) addCar(t *testing.T, ownerID, plate string) *domain.Car {
	t.Helper()
	car, err := e.cars.AddCar(context.Background(), ownerID, CarInput{Make: "Toyota", Model: "Corolla", LicensePlate: plate, Color: "blue"})
	if err != nil {
		t.Fatalf("add car %s: %v", plate, err)
	}
	return car
}

func intPtr(v int) *int { return &v }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}
