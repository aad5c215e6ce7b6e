package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/garagekit/parking-service/internal/domain"
)

type carRepository struct {
	q Querier
}

func (r *carRepository) Create(ctx context.Context, car *domain.Car) error {
	const query = `
        INSERT INTO cars (id, user_id, make, model, license_plate, color)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`

	err := r.q.QueryRow(ctx, query,
		car.ID,
		car.OwnerID,
		car.Make,
		car.Model,
		car.LicensePlate,
		car.Color,
	).Scan(&car.CreatedAt)
	return duplicate(err)
}

func (r *carRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Car, error) {
	const query = `
        SELECT id, user_id, make, model, license_plate, color, created_at
        FROM cars WHERE user_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return scanCars(rows)
}

func (r *carRepository) GetForOwner(ctx context.Context, id, ownerID string) (*domain.Car, error) {
	const query = `
        SELECT id, user_id, make, model, license_plate, color, created_at
        FROM cars WHERE id=$1 AND user_id=$2`
	var car domain.Car
	if err := r.q.QueryRow(ctx, query, id, ownerID).Scan(
		&car.ID,
		&car.OwnerID,
		&car.Make,
		&car.Model,
		&car.LicensePlate,
		&car.Color,
		&car.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &car, nil
}

func (r *carRepository) Delete(ctx context.Context, id, ownerID string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM cars WHERE id=$1 AND user_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *carRepository) ExistsByLicensePlate(ctx context.Context, plate string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cars WHERE license_plate=$1)`, plate).Scan(&exists)
	return exists, err
}

func scanCars(rows pgx.Rows) ([]domain.Car, error) {
	defer rows.Close()

	cars := []domain.Car{}
	for rows.Next() {
		var car domain.Car
		if err := rows.Scan(
			&car.ID,
			&car.OwnerID,
			&car.Make,
			&car.Model,
			&car.LicensePlate,
			&car.Color,
			&car.CreatedAt,
		); err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}
