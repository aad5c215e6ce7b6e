package persistence

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/garagekit/parking-service/internal/config"
	"github.com/garagekit/parking-service/internal/repository"
)

func TestNewPostgresWithoutDSNUsesMemoryStore(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer pg.Close()

	if pg.PoolHandle() != nil {
		t.Fatal("expected no pool")
	}
	if err := pg.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error without pool")
	}
	if _, ok := pg.Store().(*repository.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", pg.Store())
	}
}

func TestNilRedisIsUnreachable(t *testing.T) {
	var r *Redis
	if r.Reachable() {
		t.Fatal("nil redis must not be reachable")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatal("expected error from nil redis")
	}
	r.Close()
}
