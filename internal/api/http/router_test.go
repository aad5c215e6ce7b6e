package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/garagekit/parking-service/internal/api/http/handlers"
	"github.com/garagekit/parking-service/internal/auth"
	"github.com/garagekit/parking-service/internal/config"
	"github.com/garagekit/parking-service/internal/events"
	"github.com/garagekit/parking-service/internal/observability"
	"github.com/garagekit/parking-service/internal/repository"
	"github.com/garagekit/parking-service/internal/service"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func newTestApp(t *testing.T, deps map[string]handlers.Pinger) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	layout, _ := config.ParseGarageLayout(config.DefaultGarageLayout)
	if _, err := service.NewSeeder(store, config.GarageConfig{Layout: layout}, logger).Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if deps == nil {
		deps = map[string]handlers.Pinger{"store": store}
	}

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, store)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("parking-service", "test", deps, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Cars:           handlers.NewCarsHandler(service.NewCarService(store)),
		Spots:          handlers.NewSpotsHandler(service.NewSpotService(store)),
		Parking:        handlers.NewParkingHandler(service.NewParkingService(store, events.NewInMemoryDispatcher(), logger)),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func expectError(t *testing.T, status int, raw []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, status, raw)
	}
	if got := decode[errorBody](t, raw).Error.Code; got != wantCode {
		t.Fatalf("expected code %s, got %s", wantCode, got)
	}
}

func register(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, raw := call(t, app, "POST", "/auth/register", "", map[string]string{
		"firstName": "Test", "lastName": "Driver", "email": email, "password": "secret1",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("register: %d %s", status, raw)
	}
	return decode[struct {
		Token string `json:"token"`
	}](t, raw).Token
}

func TestParkingFlow(t *testing.T) {
	app := newTestApp(t, nil)
	token := register(t, app, "driver@example.com")

	status, raw := call(t, app, "GET", "/auth/me", token, nil)
	if status != fiber.StatusOK || decode[map[string]any](t, raw)["email"] != "driver@example.com" {
		t.Fatalf("me: %d %s", status, raw)
	}

	status, raw = call(t, app, "POST", "/cars", token, map[string]string{
		"make": "Toyota", "model": "Yaris", "licensePlate": "abc1234", "color": "white",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("add car: %d %s", status, raw)
	}
	car := decode[map[string]any](t, raw)
	if car["licensePlate"] != "ABC1234" {
		t.Fatalf("plate not normalized: %v", car)
	}
	carID := car["id"].(string)

	status, raw = call(t, app, "POST", "/cars", token, map[string]string{
		"make": "Toyota", "model": "Yaris", "licensePlate": "ABC1234",
	})
	expectError(t, status, raw, fiber.StatusBadRequest, "LICENSE_PLATE_IN_USE")

	status, raw = call(t, app, "POST", "/cars", token, map[string]string{
		"make": "Toyota", "model": "Yaris", "licensePlate": "AB-1234",
	})
	expectError(t, status, raw, fiber.StatusBadRequest, "VALIDATION_FAILED")

	status, raw = call(t, app, "POST", "/cars", token, map[string]string{
		"make": "Mazda", "model": "3", "licensePlate": "XYZ9876",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("add second car: %d %s", status, raw)
	}
	otherCarID := decode[map[string]any](t, raw)["id"].(string)

	status, raw = call(t, app, "GET", "/cars", token, nil)
	if status != fiber.StatusOK || len(decode[[]map[string]any](t, raw)) != 2 {
		t.Fatalf("list cars: %d %s", status, raw)
	}

	status, raw = call(t, app, "POST", "/parking", token, map[string]any{"carId": carID, "floor": 1, "spotNumber": 5})
	if status != fiber.StatusCreated {
		t.Fatalf("park: %d %s", status, raw)
	}
	session := decode[map[string]any](t, raw)
	sessionID := session["parkingSessionId"].(string)
	if session["active"] != true || session["spot"].(map[string]any)["spotNumber"].(float64) != 5 {
		t.Fatalf("unexpected session %v", session)
	}

	status, raw = call(t, app, "POST", "/parking", token, map[string]any{"carId": otherCarID, "floor": 1, "spotNumber": 5})
	expectError(t, status, raw, fiber.StatusConflict, "SPOT_OCCUPIED")

	status, raw = call(t, app, "POST", "/parking", token, map[string]any{"carId": otherCarID, "floor": 1, "spotNumber": 99})
	expectError(t, status, raw, fiber.StatusConflict, "SPOT_NOT_FOUND")

	status, raw = call(t, app, "GET", "/spots/available?floor=1", "", nil)
	if status != fiber.StatusOK || len(decode[[]map[string]any](t, raw)) != 19 {
		t.Fatalf("available: %d %s", status, raw)
	}

	status, raw = call(t, app, "GET", "/parking/active", token, nil)
	if status != fiber.StatusOK || len(decode[[]map[string]any](t, raw)) != 1 {
		t.Fatalf("active: %d %s", status, raw)
	}

	status, raw = call(t, app, "DELETE", "/cars/"+carID, token, nil)
	expectError(t, status, raw, fiber.StatusConflict, "CAR_PARKED")

	status, raw = call(t, app, "POST", "/parking/"+sessionID+"/leave", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("leave: %d %s", status, raw)
	}
	closed := decode[map[string]any](t, raw)
	if closed["active"] != false || closed["endTime"] == nil {
		t.Fatalf("session not closed: %v", closed)
	}

	status, raw = call(t, app, "POST", "/parking/"+sessionID+"/leave", token, nil)
	expectError(t, status, raw, fiber.StatusConflict, "SESSION_ALREADY_CLOSED")

	status, _ = call(t, app, "DELETE", "/cars/"+carID, token, nil)
	if status != fiber.StatusNoContent {
		t.Fatalf("delete: %d", status)
	}
	status, raw = call(t, app, "DELETE", "/cars/"+carID, token, nil)
	expectError(t, status, raw, fiber.StatusNotFound, "CAR_NOT_FOUND")
}

func TestOwnershipIsEnforced(t *testing.T) {
	app := newTestApp(t, nil)
	alice := register(t, app, "alice@example.com")
	bob := register(t, app, "bob@example.com")

	_, raw := call(t, app, "POST", "/cars", alice, map[string]string{"make": "VW", "model": "Polo", "licensePlate": "ALI0001"})
	carID := decode[map[string]any](t, raw)["id"].(string)

	status, raw := call(t, app, "POST", "/parking", bob, map[string]any{"carId": carID, "floor": 2, "spotNumber": 1})
	expectError(t, status, raw, fiber.StatusConflict, "CAR_NOT_FOUND")

	status, raw = call(t, app, "POST", "/api/parking/park", bob, map[string]any{"carId": carID, "floor": 2, "spotNumber": 1})
	expectError(t, status, raw, fiber.StatusConflict, "CAR_NOT_FOUND")

	status, raw = call(t, app, "DELETE", "/cars/"+carID, bob, nil)
	expectError(t, status, raw, fiber.StatusNotFound, "CAR_NOT_FOUND")

	_, raw = call(t, app, "POST", "/parking", alice, map[string]any{"carId": carID})
	sessionID := decode[map[string]any](t, raw)["parkingSessionId"].(string)

	status, raw = call(t, app, "POST", "/parking/"+sessionID+"/leave", bob, nil)
	expectError(t, status, raw, fiber.StatusNotFound, "SESSION_NOT_FOUND")

	status, raw = call(t, app, "GET", "/parking/active", bob, nil)
	if status != fiber.StatusOK || len(decode[[]map[string]any](t, raw)) != 0 {
		t.Fatalf("bob should see no sessions: %d %s", status, raw)
	}
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t, nil)
	register(t, app, "login@example.com")

	status, raw := call(t, app, "POST", "/auth/register", "", map[string]string{
		"firstName": "Again", "lastName": "Driver", "email": "LOGIN@example.com", "password": "secret1",
	})
	expectError(t, status, raw, fiber.StatusConflict, "EMAIL_ALREADY_USED")

	status, raw = call(t, app, "POST", "/auth/register", "", map[string]string{
		"firstName": "Long", "lastName": "Secret", "email": "long@example.com", "password": strings.Repeat("x", 80),
	})
	expectError(t, status, raw, fiber.StatusBadRequest, "VALIDATION_FAILED")

	status, raw = call(t, app, "POST", "/auth/login", "", map[string]string{"email": "login@example.com", "password": "secret1"})
	if status != fiber.StatusOK {
		t.Fatalf("login: %d %s", status, raw)
	}
	body := decode[map[string]any](t, raw)
	if body["token"] == "" || body["user"].(map[string]any)["email"] != "login@example.com" {
		t.Fatalf("unexpected login body %v", body)
	}

	status, raw = call(t, app, "POST", "/auth/login", "", map[string]string{"email": "login@example.com", "password": "nope-nope"})
	expectError(t, status, raw, fiber.StatusUnauthorized, "INVALID_CREDENTIALS")

	status, raw = call(t, app, "GET", "/cars", "", nil)
	expectError(t, status, raw, fiber.StatusUnauthorized, "UNAUTHORIZED")

	status, raw = call(t, app, "GET", "/auth/me", "not-a-token", nil)
	expectError(t, status, raw, fiber.StatusUnauthorized, "UNAUTHORIZED")
}

func TestRoutesServedUnderAPIPrefix(t *testing.T) {
	app := newTestApp(t, nil)
	token := register(t, app, "api@example.com")

	status, raw := call(t, app, "POST", "/api/cars", token, map[string]string{"make": "Fiat", "model": "500", "licensePlate": "API0001"})
	if status != fiber.StatusCreated {
		t.Fatalf("api add car: %d %s", status, raw)
	}
	carID := decode[map[string]any](t, raw)["id"].(string)

	status, raw = call(t, app, "POST", "/api/parking/park", token, map[string]any{"carId": carID, "floor": 3})
	if status != fiber.StatusCreated {
		t.Fatalf("api park: %d %s", status, raw)
	}
	spot := decode[map[string]any](t, raw)["spot"].(map[string]any)
	if spot["floor"].(float64) != 3 || spot["spotNumber"].(float64) != 1 {
		t.Fatalf("expected auto-assigned 3/1, got %v", spot)
	}

	status, raw = call(t, app, "GET", "/api/spots/available", "", nil)
	if status != fiber.StatusOK || len(decode[[]map[string]any](t, raw)) != 74 {
		t.Fatalf("api available: %d %s", status, raw)
	}
}

func TestSpotsAvailableRejectsBadFloor(t *testing.T) {
	app := newTestApp(t, nil)
	status, raw := call(t, app, "GET", "/spots/available?floor=ground", "", nil)
	expectError(t, status, raw, fiber.StatusBadRequest, "VALIDATION_FAILED")
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	app := newTestApp(t, nil)
	status, raw := call(t, app, "GET", "/nowhere", "", nil)
	expectError(t, status, raw, fiber.StatusNotFound, "NOT_FOUND")
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t, nil)
	if status, raw := call(t, app, "GET", "/health/live", "", nil); status != fiber.StatusOK {
		t.Fatalf("live: %d %s", status, raw)
	}
	if status, raw := call(t, app, "GET", "/health/ready", "", nil); status != fiber.StatusOK {
		t.Fatalf("ready: %d %s", status, raw)
	}
	status, raw := call(t, app, "GET", "/health/metrics", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("metrics: %d %s", status, raw)
	}
	if len(decode[observability.Snapshot](t, raw).Requests) == 0 {
		t.Fatalf("expected recorded requests: %s", raw)
	}

	degraded := newTestApp(t, map[string]handlers.Pinger{"redis": failingPinger{}})
	status, raw = call(t, degraded, "GET", "/health/ready", "", nil)
	expectError(t, status, raw, fiber.StatusServiceUnavailable, "DEPENDENCY_UNAVAILABLE")
}
