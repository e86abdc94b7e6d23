// README: Vehicle store backed by Postgres rows and a Redis GEO index.
package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"fleetwatch/internal/types"
)

const geoKey = "fleet:vehicles:online"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

const vehicleColumns = `
	id, number, plate, vehicle_type, verification_status, is_active, is_online,
	current_lat, current_lng, current_speed, current_heading, current_accuracy, current_recorded_at,
	last_seen`

func (s *Store) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT`+vehicleColumns+`
		FROM vehicles
		WHERE id = $1`, string(id))
	v, err := scanVehicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// ApplyLocation overwrites the current location, refreshes last_seen, and
// flips is_online back on in a single statement, so the pair is never observed
// half updated.
func (s *Store) ApplyLocation(ctx context.Context, id types.ID, loc Location, now time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles
		SET current_lat = $1,
		    current_lng = $2,
		    current_speed = $3,
		    current_heading = $4,
		    current_accuracy = $5,
		    current_recorded_at = $6,
		    last_seen = $7,
		    is_online = TRUE
		WHERE id = $8`,
		loc.Lat, loc.Lng, loc.SpeedKmh, loc.Heading, loc.AccuracyM, loc.Timestamp,
		now, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppendHistory(ctx context.Context, e HistoryEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO position_history (vehicle_id, lat, lng, speed, heading, accuracy, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(e.VehicleID),
		e.Location.Lat, e.Location.Lng, e.Location.SpeedKmh, e.Location.Heading,
		e.Location.AccuracyM, e.Location.Timestamp, e.CreatedAt,
	)
	return err
}

// ListSilent returns reporters eligible for an offline transition at cutoff.
// Rows already transitioned (is_online = FALSE) do not match, which keeps
// repeated sweeps idempotent without an explicit flag check in the caller.
func (s *Store) ListSilent(ctx context.Context, cutoff time.Time) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+vehicleColumns+`
		FROM vehicles
		WHERE verification_status = 'approved'
		  AND is_active = TRUE
		  AND is_online = TRUE
		  AND last_seen IS NOT NULL
		  AND last_seen < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVehicles(rows)
}

// MarkOffline performs the conditional offline transition. The last_seen guard
// is re-checked at write time, so a report accepted between the sweep's read
// and this write keeps the reporter online.
func (s *Store) MarkOffline(ctx context.Context, id types.ID, cutoff time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles
		SET is_online = FALSE
		WHERE id = $1
		  AND is_online = TRUE
		  AND last_seen < $2`,
		string(id), cutoff,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListOnline(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+vehicleColumns+`
		FROM vehicles
		WHERE verification_status = 'approved'
		  AND is_active = TRUE
		  AND is_online = TRUE
		ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVehicles(rows)
}

func (s *Store) HistorySince(ctx context.Context, id types.ID, since time.Time) ([]HistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, vehicle_id, lat, lng, speed, heading, accuracy, recorded_at, created_at
		FROM position_history
		WHERE vehicle_id = $1 AND created_at >= $2
		ORDER BY created_at`, string(id), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.VehicleID,
			&e.Location.Lat, &e.Location.Lng, &e.Location.SpeedKmh, &e.Location.Heading,
			&e.Location.AccuracyM, &e.Location.Timestamp, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteHistoryBefore prunes expired history rows. A row already removed by
// the store's own expiry is simply not counted; double deletion is harmless.
func (s *Store) DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM position_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) GeoSet(ctx context.Context, id types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (s *Store) GeoRemove(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, geoKey, string(id)).Err()
}

func (s *Store) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, geoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*Vehicle, error) {
	var v Vehicle
	var lat, lng, speed, heading *float64
	var accuracy *float64
	var recordedAt *time.Time
	err := row.Scan(
		&v.ID, &v.Number, &v.Plate, &v.VehicleType, &v.VerificationStatus, &v.IsActive, &v.IsOnline,
		&lat, &lng, &speed, &heading, &accuracy, &recordedAt,
		&v.LastSeen,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil && recordedAt != nil {
		loc := Location{
			Lat:       *lat,
			Lng:       *lng,
			AccuracyM: accuracy,
			Timestamp: *recordedAt,
		}
		if speed != nil {
			loc.SpeedKmh = *speed
		}
		if heading != nil {
			loc.Heading = *heading
		}
		v.CurrentLocation = &loc
	}
	return &v, nil
}

func collectVehicles(rows pgx.Rows) ([]Vehicle, error) {
	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}
