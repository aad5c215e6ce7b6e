package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/garagekit/parking-service/internal/domain"
)

type spotRepository struct {
	q Querier
}

const spotColumns = `id, floor, spot_number, occupied, current_session_id, created_at, updated_at`

func (r *spotRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM parking_spots`).Scan(&count)
	return count, err
}

// CreateBatch inserts spots, skipping any (floor, spot_number) that already
// exists, and returns how many rows were written.
func (r *spotRepository) CreateBatch(ctx context.Context, spots []domain.ParkingSpot) (int, error) {
	if len(spots) == 0 {
		return 0, nil
	}
	const query = `
        INSERT INTO parking_spots (id, floor, spot_number, occupied)
        VALUES ($1, $2, $3, FALSE)
        ON CONFLICT (floor, spot_number) DO NOTHING`

	batch := &pgx.Batch{}
	for _, spot := range spots {
		batch.Queue(query, spot.ID, spot.Floor, spot.SpotNumber)
	}
	results := r.q.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range spots {
		cmd, err := results.Exec()
		if err != nil {
			return created, err
		}
		created += int(cmd.RowsAffected())
	}
	return created, nil
}

func (r *spotRepository) GetByID(ctx context.Context, id string) (*domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *spotRepository) GetByFloorAndNumber(ctx context.Context, floor, number int) (*domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE floor=$1 AND spot_number=$2`
	return r.fetchSingle(ctx, query, floor, number)
}

func (r *spotRepository) ListAvailable(ctx context.Context, floor *int) ([]domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + `
        FROM parking_spots
        WHERE occupied = FALSE AND ($1::int IS NULL OR floor = $1)
        ORDER BY floor ASC, spot_number ASC`
	rows, err := r.q.Query(ctx, query, floor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := []domain.ParkingSpot{}
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, *spot)
	}
	return spots, rows.Err()
}

// FirstAvailable skips rows locked by concurrent claimers so auto-assigning
// callers fan out over different spots.
func (r *spotRepository) FirstAvailable(ctx context.Context, floor *int) (*domain.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + `
        FROM parking_spots
        WHERE occupied = FALSE AND ($1::int IS NULL OR floor = $1)
        ORDER BY floor ASC, spot_number ASC
        LIMIT 1
        FOR UPDATE SKIP LOCKED`
	return r.fetchSingle(ctx, query, floor)
}

func (r *spotRepository) Claim(ctx context.Context, spotID, sessionID string, at time.Time) error {
	const query = `
        UPDATE parking_spots
        SET occupied = TRUE, current_session_id = $2, updated_at = $3
        WHERE id = $1 AND occupied = FALSE`
	cmd, err := r.q.Exec(ctx, query, spotID, sessionID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *spotRepository) Release(ctx context.Context, spotID, sessionID string, at time.Time) error {
	const query = `
        UPDATE parking_spots
        SET occupied = FALSE, current_session_id = NULL, updated_at = $3
        WHERE id = $1 AND current_session_id = $2`
	cmd, err := r.q.Exec(ctx, query, spotID, sessionID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *spotRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.ParkingSpot, error) {
	spot, err := scanSpot(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return spot, nil
}

func scanSpot(row pgx.Row) (*domain.ParkingSpot, error) {
	var spot domain.ParkingSpot
	if err := row.Scan(
		&spot.ID,
		&spot.Floor,
		&spot.SpotNumber,
		&spot.Occupied,
		&spot.CurrentSessionID,
		&spot.CreatedAt,
		&spot.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &spot, nil
}
