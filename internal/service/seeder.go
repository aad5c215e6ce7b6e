package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garagekit/parking-service/internal/config"
	"github.com/garagekit/parking-service/internal/domain"
	"github.com/garagekit/parking-service/internal/repository"
)

// Seeder creates the garage's spots on first boot.
type Seeder struct {
	store  repository.Store
	layout []config.FloorLayout
	logger *zap.Logger
}

// NewSeeder builds a seeder for the configured topology.
func NewSeeder(store repository.Store, cfg config.GarageConfig, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, layout: cfg.Layout, logger: logger}
}

// Seed creates every spot of the layout, all free and numbered from 1 on
// each floor, when the garage has no spots yet. It returns how many spots
// were created; a garage that already has spots is left untouched.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	created := 0
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		count, err := tx.Spots().Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			s.logger.Info("parking spots already seeded", zap.Int("spots", count))
			return nil
		}

		spots := make([]domain.ParkingSpot, 0)
		for _, floor := range s.layout {
			for number := 1; number <= floor.Spots; number++ {
				spots = append(spots, domain.ParkingSpot{
					ID:         uuid.NewString(),
					Floor:      floor.Floor,
					SpotNumber: number,
				})
			}
		}
		created, err = tx.Spots().CreateBatch(ctx, spots)
		return err
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.logger.Info("seeded parking spots", zap.Int("spots", created), zap.Int("floors", len(s.layout)))
	}
	return created, nil
}
