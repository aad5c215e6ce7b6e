package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/garagekit/parking-service/internal/domain"
)

// memoryState is the whole dataset of the in-memory store. Values are
// stored by copy; pointer fields are replaced, never mutated in place.
type memoryState struct {
	users      map[string]domain.User
	cars       map[string]domain.Car
	carOrder   []string
	spots      map[string]domain.ParkingSpot
	sessions   map[string]domain.ParkingSession
	sessionSeq []string
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:    make(map[string]domain.User),
		cars:     make(map[string]domain.Car),
		spots:    make(map[string]domain.ParkingSpot),
		sessions: make(map[string]domain.ParkingSession),
	}
}

func (m *memoryState) clone() *memoryState {
	cp := newMemoryState()
	for k, v := range m.users {
		cp.users[k] = v
	}
	for k, v := range m.cars {
		cp.cars[k] = v
	}
	for k, v := range m.spots {
		cp.spots[k] = v
	}
	for k, v := range m.sessions {
		cp.sessions[k] = v
	}
	cp.carOrder = append([]string(nil), m.carOrder...)
	cp.sessionSeq = append([]string(nil), m.sessionSeq...)
	return cp
}

// MemoryStore is a Store kept in process memory. A transaction holds the
// store-wide lock until it finishes, so transactions are serializable, and
// a failed transaction restores the snapshot taken when it began.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memoryState
	inTx  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, state: newMemoryState()}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Users() UserRepository       { return memUsers{s} }
func (s *MemoryStore) Cars() CarRepository         { return memCars{s} }
func (s *MemoryStore) Spots() SpotRepository       { return memSpots{s} }
func (s *MemoryStore) Sessions() SessionRepository { return memSessions{s} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.state.clone()
	if err := fn(&MemoryStore{mu: s.mu, state: s.state, inTx: true}); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(_ context.Context, user *domain.User) error {
	defer r.s.lock()()
	for _, existing := range r.s.state.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}
	user.CreatedAt = time.Now().UTC()
	r.s.state.users[user.ID] = *user
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	defer r.s.lock()()
	user, ok := r.s.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.s.lock()()
	for _, user := range r.s.state.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type memCars struct{ s *MemoryStore }

func (r memCars) Create(_ context.Context, car *domain.Car) error {
	defer r.s.lock()()
	for _, existing := range r.s.state.cars {
		if existing.LicensePlate == car.LicensePlate {
			return ErrDuplicate
		}
	}
	car.CreatedAt = time.Now().UTC()
	r.s.state.cars[car.ID] = *car
	r.s.state.carOrder = append(r.s.state.carOrder, car.ID)
	return nil
}

func (r memCars) ListByOwner(_ context.Context, ownerID string) ([]domain.Car, error) {
	defer r.s.lock()()
	cars := []domain.Car{}
	for _, id := range r.s.state.carOrder {
		if car := r.s.state.cars[id]; car.OwnerID == ownerID {
			cars = append(cars, car)
		}
	}
	return cars, nil
}

func (r memCars) GetForOwner(_ context.Context, id, ownerID string) (*domain.Car, error) {
	defer r.s.lock()()
	car, ok := r.s.state.cars[id]
	if !ok || car.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &car, nil
}

// Delete unlinks the car from past sessions, matching ON DELETE SET NULL.
func (r memCars) Delete(_ context.Context, id, ownerID string) error {
	defer r.s.lock()()
	car, ok := r.s.state.cars[id]
	if !ok || car.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.s.state.cars, id)
	for i, cid := range r.s.state.carOrder {
		if cid == id {
			r.s.state.carOrder = append(r.s.state.carOrder[:i:i], r.s.state.carOrder[i+1:]...)
			break
		}
	}
	for sid, session := range r.s.state.sessions {
		if session.CarID == id {
			session.CarID = ""
			r.s.state.sessions[sid] = session
		}
	}
	return nil
}

func (r memCars) ExistsByLicensePlate(_ context.Context, plate string) (bool, error) {
	defer r.s.lock()()
	for _, car := range r.s.state.cars {
		if car.LicensePlate == plate {
			return true, nil
		}
	}
	return false, nil
}

type memSpots struct{ s *MemoryStore }

func (r memSpots) Count(context.Context) (int, error) {
	defer r.s.lock()()
	return len(r.s.state.spots), nil
}

func (r memSpots) CreateBatch(_ context.Context, spots []domain.ParkingSpot) (int, error) {
	defer r.s.lock()()
	taken := make(map[[2]int]struct{}, len(r.s.state.spots))
	for _, spot := range r.s.state.spots {
		taken[[2]int{spot.Floor, spot.SpotNumber}] = struct{}{}
	}
	now := time.Now().UTC()
	created := 0
	for _, spot := range spots {
		key := [2]int{spot.Floor, spot.SpotNumber}
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}
		spot.Occupied = false
		spot.CurrentSessionID = nil
		spot.CreatedAt, spot.UpdatedAt = now, now
		r.s.state.spots[spot.ID] = spot
		created++
	}
	return created, nil
}

func (r memSpots) GetByID(_ context.Context, id string) (*domain.ParkingSpot, error) {
	defer r.s.lock()()
	spot, ok := r.s.state.spots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &spot, nil
}

func (r memSpots) GetByFloorAndNumber(_ context.Context, floor, number int) (*domain.ParkingSpot, error) {
	defer r.s.lock()()
	for _, spot := range r.s.state.spots {
		if spot.Floor == floor && spot.SpotNumber == number {
			sp := spot
			return &sp, nil
		}
	}
	return nil, ErrNotFound
}

func (r memSpots) ListAvailable(_ context.Context, floor *int) ([]domain.ParkingSpot, error) {
	defer r.s.lock()()
	return r.available(floor), nil
}

func (r memSpots) FirstAvailable(_ context.Context, floor *int) (*domain.ParkingSpot, error) {
	defer r.s.lock()()
	spots := r.available(floor)
	if len(spots) == 0 {
		return nil, ErrNotFound
	}
	return &spots[0], nil
}

func (r memSpots) available(floor *int) []domain.ParkingSpot {
	spots := []domain.ParkingSpot{}
	for _, spot := range r.s.state.spots {
		if spot.Occupied || (floor != nil && spot.Floor != *floor) {
			continue
		}
		spots = append(spots, spot)
	}
	sort.Slice(spots, func(i, j int) bool {
		if spots[i].Floor != spots[j].Floor {
			return spots[i].Floor < spots[j].Floor
		}
		return spots[i].SpotNumber < spots[j].SpotNumber
	})
	return spots
}

func (r memSpots) Claim(_ context.Context, spotID, sessionID string, at time.Time) error {
	defer r.s.lock()()
	spot, ok := r.s.state.spots[spotID]
	if !ok {
		return ErrNotFound
	}
	if spot.Occupied {
		return ErrConflict
	}
	sid := sessionID
	spot.Occupied = true
	spot.CurrentSessionID = &sid
	spot.UpdatedAt = at
	r.s.state.spots[spotID] = spot
	return nil
}

func (r memSpots) Release(_ context.Context, spotID, sessionID string, at time.Time) error {
	defer r.s.lock()()
	spot, ok := r.s.state.spots[spotID]
	if !ok {
		return ErrNotFound
	}
	if spot.CurrentSessionID == nil || *spot.CurrentSessionID != sessionID {
		return ErrConflict
	}
	spot.Occupied = false
	spot.CurrentSessionID = nil
	spot.UpdatedAt = at
	r.s.state.spots[spotID] = spot
	return nil
}

type memSessions struct{ s *MemoryStore }

func (r memSessions) Create(_ context.Context, session *domain.ParkingSession) error {
	defer r.s.lock()()
	if session.Active {
		for _, existing := range r.s.state.sessions {
			if existing.Active && (existing.CarID == session.CarID || existing.SpotID == session.SpotID) {
				return ErrDuplicate
			}
		}
	}
	r.s.state.sessions[session.ID] = *session
	r.s.state.sessionSeq = append(r.s.state.sessionSeq, session.ID)
	return nil
}

func (r memSessions) GetForUser(_ context.Context, id, userID string) (*domain.ParkingSession, error) {
	defer r.s.lock()()
	session, ok := r.s.state.sessions[id]
	if !ok || session.UserID != userID {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (r memSessions) ListActiveByUser(_ context.Context, userID string) ([]domain.SessionView, error) {
	defer r.s.lock()()
	views := []domain.SessionView{}
	for _, id := range r.s.state.sessionSeq {
		session := r.s.state.sessions[id]
		if !session.Active || session.UserID != userID {
			continue
		}
		views = append(views, domain.SessionView{
			Session: session,
			Car:     r.s.state.cars[session.CarID],
			Spot:    r.s.state.spots[session.SpotID],
		})
	}
	return views, nil
}

func (r memSessions) HasActiveForCar(_ context.Context, carID string) (bool, error) {
	defer r.s.lock()()
	for _, session := range r.s.state.sessions {
		if session.Active && session.CarID == carID {
			return true, nil
		}
	}
	return false, nil
}

func (r memSessions) Close(_ context.Context, id string, at time.Time) error {
	defer r.s.lock()()
	session, ok := r.s.state.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if !session.Active {
		return ErrConflict
	}
	session.Close(at)
	r.s.state.sessions[id] = session
	return nil
}
