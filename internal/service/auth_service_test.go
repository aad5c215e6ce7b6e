package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/garagekit/parking-service/internal/config"
	"github.com/garagekit/parking-service/internal/repository"
)

func newAuthService() *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, repository.NewMemoryStore())
}

func TestRegisterLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	registered, err := svc.Register(ctx, RegisterInput{FirstName: "Ada", LastName: "Lovelace", Email: " Ada@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.User.Email != "ada@example.com" || registered.Token == "" {
		t.Fatalf("unexpected result %+v", registered)
	}
	if registered.User.PasswordHash == "secret1" {
		t.Fatal("password stored in plaintext")
	}

	loggedIn, err := svc.Login(ctx, "ADA@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	user, err := svc.Authenticate(ctx, loggedIn.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != registered.User.ID {
		t.Fatalf("token resolved to %s, want %s", user.ID, registered.User.ID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	in := RegisterInput{FirstName: "A", LastName: "B", Email: "dup@example.com", Password: "secret1"}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}
	in.Email = "DUP@example.com"
	if _, err := svc.Register(ctx, in); !errors.Is(err, ErrEmailAlreadyUsed) {
		t.Fatalf("expected ErrEmailAlreadyUsed, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService()
	cases := []RegisterInput{
		{FirstName: "", LastName: "B", Email: "a@example.com", Password: "secret1"},
		{FirstName: "A", LastName: "", Email: "a@example.com", Password: "secret1"},
		{FirstName: "A", LastName: "B", Email: "not-an-email", Password: "secret1"},
		{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "short"},
		{FirstName: "A", LastName: "B", Email: "a@example.com", Password: strings.Repeat("p", 80)},
	}
	for _, in := range cases {
		_, err := svc.Register(context.Background(), in)
		requireCode(t, err, "VALIDATION_FAILED")
	}
}

func TestRegisterAcceptsPasswordAtByteLimit(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	password := strings.Repeat("p", 72)
	if _, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "max@example.com", Password: password}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "max@example.com", password); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Login(ctx, "max@example.com", password+"x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()
	if _, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "a@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	svc := newAuthService()
	_, err := svc.Authenticate(context.Background(), "garbage")
	requireCode(t, err, "UNAUTHORIZED")

	other := NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, repository.NewMemoryStore())
	res, err := other.Register(context.Background(), RegisterInput{FirstName: "A", LastName: "B", Email: "x@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.Authenticate(context.Background(), res.Token)
	requireCode(t, err, "UNAUTHORIZED")
}
