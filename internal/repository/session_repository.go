package repository

import (
	"context"
	"time"

	"github.com/garagekit/parking-service/internal/domain"
)

type sessionRepository struct {
	q Querier
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.ParkingSession) error {
	const query = `
        INSERT INTO parking_sessions (id, user_id, car_id, spot_id, start_time, end_time, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.q.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.CarID,
		session.SpotID,
		session.StartTime,
		session.EndTime,
		session.Active,
	)
	return duplicate(err)
}

// GetForUser locks the session row for the rest of the transaction.
func (r *sessionRepository) GetForUser(ctx context.Context, id, userID string) (*domain.ParkingSession, error) {
	const query = `
        SELECT id, user_id, car_id, spot_id, start_time, end_time, active
        FROM parking_sessions WHERE id=$1 AND user_id=$2
        FOR UPDATE`

	var (
		session domain.ParkingSession
		carID   *string
	)
	if err := r.q.QueryRow(ctx, query, id, userID).Scan(
		&session.ID,
		&session.UserID,
		&carID,
		&session.SpotID,
		&session.StartTime,
		&session.EndTime,
		&session.Active,
	); err != nil {
		return nil, notFound(err)
	}
	if carID != nil {
		session.CarID = *carID
	}
	return &session, nil
}

func (r *sessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]domain.SessionView, error) {
	const query = `
        SELECT s.id, s.user_id, s.car_id, s.spot_id, s.start_time, s.end_time, s.active,
               c.id, c.user_id, c.make, c.model, c.license_plate, c.color, c.created_at,
               p.id, p.floor, p.spot_number, p.occupied, p.current_session_id, p.created_at, p.updated_at
        FROM parking_sessions s
        JOIN cars c ON c.id = s.car_id
        JOIN parking_spots p ON p.id = s.spot_id
        WHERE s.user_id = $1 AND s.active
        ORDER BY s.start_time ASC, s.id ASC`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []domain.SessionView{}
	for rows.Next() {
		var view domain.SessionView
		if err := rows.Scan(
			&view.Session.ID,
			&view.Session.UserID,
			&view.Session.CarID,
			&view.Session.SpotID,
			&view.Session.StartTime,
			&view.Session.EndTime,
			&view.Session.Active,
			&view.Car.ID,
			&view.Car.OwnerID,
			&view.Car.Make,
			&view.Car.Model,
			&view.Car.LicensePlate,
			&view.Car.Color,
			&view.Car.CreatedAt,
			&view.Spot.ID,
			&view.Spot.Floor,
			&view.Spot.SpotNumber,
			&view.Spot.Occupied,
			&view.Spot.CurrentSessionID,
			&view.Spot.CreatedAt,
			&view.Spot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

func (r *sessionRepository) HasActiveForCar(ctx context.Context, carID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM parking_sessions WHERE car_id=$1 AND active)`, carID,
	).Scan(&exists)
	return exists, err
}

func (r *sessionRepository) Close(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE parking_sessions SET active = FALSE, end_time = $2
        WHERE id = $1 AND active`
	cmd, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}
