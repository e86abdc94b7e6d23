// README: Alert store backed by PostgreSQL with conditional status updates.
package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetwatch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, a *Alert) error {
	var vehicleID *string
	if a.VehicleID != nil {
		v := string(*a.VehicleID)
		vehicleID = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO alerts (
			id, sender_id, sender_role, sender_name, vehicle_id,
			lat, lng, speed, heading, accuracy, recorded_at,
			message, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		string(a.ID), string(a.SenderID), a.SenderRole, a.SenderName, vehicleID,
		a.Location.Lat, a.Location.Lng, a.Location.SpeedKmh, a.Location.Heading,
		a.Location.AccuracyM, a.Location.Timestamp,
		a.Message, string(a.Status), a.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Alert, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, sender_id, sender_role, sender_name, vehicle_id,
		       lat, lng, speed, heading, accuracy, recorded_at,
		       message, status, created_at, resolved_at
		FROM alerts
		WHERE id = $1`, string(id))

	var a Alert
	var vehicleID *string
	err := row.Scan(
		&a.ID, &a.SenderID, &a.SenderRole, &a.SenderName, &vehicleID,
		&a.Location.Lat, &a.Location.Lng, &a.Location.SpeedKmh, &a.Location.Heading,
		&a.Location.AccuracyM, &a.Location.Timestamp,
		&a.Message, &a.Status, &a.CreatedAt, &a.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if vehicleID != nil {
		v := types.ID(*vehicleID)
		a.VehicleID = &v
	}
	return &a, nil
}

// UpdateStatus applies a forward transition only if the row is still in the
// expected source status at write time.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, resolvedAt *time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE alerts
		SET status = $1,
		    resolved_at = COALESCE($2, resolved_at)
		WHERE id = $3 AND status = $4`,
		string(to), resolvedAt, string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListActive(ctx context.Context) ([]Alert, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, sender_id, sender_role, sender_name, vehicle_id,
		       lat, lng, speed, heading, accuracy, recorded_at,
		       message, status, created_at, resolved_at
		FROM alerts
		WHERE status IN ('active', 'acknowledged')
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var vehicleID *string
		if err := rows.Scan(
			&a.ID, &a.SenderID, &a.SenderRole, &a.SenderName, &vehicleID,
			&a.Location.Lat, &a.Location.Lng, &a.Location.SpeedKmh, &a.Location.Heading,
			&a.Location.AccuracyM, &a.Location.Timestamp,
			&a.Message, &a.Status, &a.CreatedAt, &a.ResolvedAt,
		); err != nil {
			return nil, err
		}
		if vehicleID != nil {
			v := types.ID(*vehicleID)
			a.VehicleID = &v
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// DeleteResolvedBefore removes resolved alerts older than cutoff. Double
// deletion against a concurrent expiry path is a no-op, not an error.
func (s *Store) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM alerts
		WHERE status = 'resolved' AND resolved_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
