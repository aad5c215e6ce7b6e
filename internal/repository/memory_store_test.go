package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garagekit/parking-service/internal/domain"
)

func seedSpots(t *testing.T, store Store, floor, count int) []domain.ParkingSpot {
	t.Helper()
	spots := make([]domain.ParkingSpot, 0, count)
	for i := 1; i <= count; i++ {
		spots = append(spots, domain.ParkingSpot{ID: spotID(floor, i), Floor: floor, SpotNumber: i})
	}
	if _, err := store.Spots().CreateBatch(context.Background(), spots); err != nil {
		t.Fatalf("seed spots: %v", err)
	}
	return spots
}

func spotID(floor, number int) string {
	return "spot-" + string(rune('0'+floor)) + "-" + string(rune('a'+number))
}

func TestMemoryStoreRollsBackFailedTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedSpots(t, store, 1, 3)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Spots().Claim(ctx, spotID(1, 1), "session-1", time.Now()); err != nil {
			return err
		}
		if err := tx.Sessions().Create(ctx, &domain.ParkingSession{
			ID: "session-1", UserID: "u1", CarID: "c1", SpotID: spotID(1, 1), StartTime: time.Now(), Active: true,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	spot, err := store.Spots().GetByID(ctx, spotID(1, 1))
	if err != nil {
		t.Fatalf("get spot: %v", err)
	}
	if spot.Occupied || spot.CurrentSessionID != nil {
		t.Fatalf("claim should have been rolled back: %+v", spot)
	}
	if _, err := store.Sessions().GetForUser(ctx, "session-1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("session should have been rolled back, got %v", err)
	}
}

func TestMemoryStoreClaimAndRelease(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedSpots(t, store, 2, 2)
	id := spotID(2, 1)

	if err := store.Spots().Claim(ctx, id, "s1", time.Now()); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := store.Spots().Claim(ctx, id, "s2", time.Now()); !errors.Is(err, ErrConflict) {
		t.Fatalf("second claim should conflict, got %v", err)
	}
	if err := store.Spots().Release(ctx, id, "s2", time.Now()); !errors.Is(err, ErrConflict) {
		t.Fatalf("release by wrong session should conflict, got %v", err)
	}
	if err := store.Spots().Release(ctx, id, "s1", time.Now()); err != nil {
		t.Fatalf("release: %v", err)
	}

	available, err := store.Spots().ListAvailable(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(available) != 2 || available[0].SpotNumber != 1 || available[1].SpotNumber != 2 {
		t.Fatalf("unexpected available spots: %+v", available)
	}
}

func TestMemoryStoreCreateBatchSkipsExisting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedSpots(t, store, 1, 2)

	created, err := store.Spots().CreateBatch(ctx, []domain.ParkingSpot{
		{ID: "dup", Floor: 1, SpotNumber: 1},
		{ID: "new", Floor: 1, SpotNumber: 3},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected 1 new spot, got %d", created)
	}
	if count, _ := store.Spots().Count(ctx); count != 3 {
		t.Fatalf("expected 3 spots, got %d", count)
	}
}

func TestMemoryStoreCarOwnershipAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	car := &domain.Car{ID: "car-1", OwnerID: "alice", Make: "VW", Model: "Golf", LicensePlate: "ABC1234"}
	if err := store.Cars().Create(ctx, car); err != nil {
		t.Fatalf("create car: %v", err)
	}
	if err := store.Cars().Create(ctx, &domain.Car{ID: "car-2", OwnerID: "bob", LicensePlate: "ABC1234"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate plate, got %v", err)
	}
	if _, err := store.Cars().GetForOwner(ctx, "car-1", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign owner should not see car, got %v", err)
	}

	closed := domain.ParkingSession{ID: "s-old", UserID: "alice", CarID: "car-1", SpotID: "x", StartTime: time.Now()}
	closed.Close(time.Now())
	if err := store.Sessions().Create(ctx, &closed); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := store.Cars().Delete(ctx, "car-1", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete should be not found, got %v", err)
	}
	if err := store.Cars().Delete(ctx, "car-1", "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cars, _ := store.Cars().ListByOwner(ctx, "alice")
	if len(cars) != 0 {
		t.Fatalf("expected no cars, got %+v", cars)
	}
	history, err := store.Sessions().GetForUser(ctx, "s-old", "alice")
	if err != nil {
		t.Fatalf("history should survive car deletion: %v", err)
	}
	if history.CarID != "" {
		t.Fatalf("car link should be cleared, got %q", history.CarID)
	}
}

func TestMemoryStoreSessionClose(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	session := &domain.ParkingSession{ID: "s1", UserID: "u", CarID: "c", SpotID: "p", StartTime: time.Now(), Active: true}
	if err := store.Sessions().Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Sessions().Create(ctx, &domain.ParkingSession{ID: "s2", UserID: "u", CarID: "c", SpotID: "q", Active: true}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second active session for car should be rejected, got %v", err)
	}
	if active, _ := store.Sessions().HasActiveForCar(ctx, "c"); !active {
		t.Fatal("expected active session for car")
	}
	if err := store.Sessions().Close(ctx, "s1", time.Now()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Sessions().Close(ctx, "s1", time.Now()); !errors.Is(err, ErrConflict) {
		t.Fatalf("double close should conflict, got %v", err)
	}
	got, _ := store.Sessions().GetForUser(ctx, "s1", "u")
	if got.Active || got.EndTime == nil || !got.Consistent() {
		t.Fatalf("unexpected closed session %+v", got)
	}
}

func TestPostgresStorePingWithoutPool(t *testing.T) {
	store := NewPostgresStore(nil)
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected error when pool is nil")
	}
}

func TestMemoryStoreExistsByEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if exists, err := store.Users().ExistsByEmail(ctx, "a@example.com"); err != nil || exists {
		t.Fatalf("empty store: exists=%v err=%v", exists, err)
	}
	if err := store.Users().Create(ctx, &domain.User{ID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if exists, err := store.Users().ExistsByEmail(ctx, "a@example.com"); err != nil || !exists {
		t.Fatalf("after create: exists=%v err=%v", exists, err)
	}
}
