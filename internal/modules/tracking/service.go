// README: Update ingestion; validates reports, applies them atomically, and broadcasts.
package tracking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/metrics"
	"fleetwatch/internal/types"
)

var (
	ErrValidation   = errors.New("invalid position report")
	ErrUnauthorized = errors.New("reporter not approved or inactive")
	ErrNotFound     = errors.New("vehicle not found")
)

// VehicleStore is the slice of the state store the ingestion path needs.
type VehicleStore interface {
	Get(ctx context.Context, id types.ID) (*Vehicle, error)
	ApplyLocation(ctx context.Context, id types.ID, loc Location, now time.Time) error
	AppendHistory(ctx context.Context, e HistoryEntry) error
	ListOnline(ctx context.Context) ([]Vehicle, error)
	HistorySince(ctx context.Context, id types.ID, since time.Time) ([]HistoryEntry, error)
	GeoSet(ctx context.Context, id types.ID, p types.Point) error
	Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

// Broadcaster delivers accepted updates to observer channels.
type Broadcaster interface {
	BroadcastLocation(update LocationBroadcast)
}

type Service struct {
	store       VehicleStore
	broadcaster Broadcaster
	log         *zap.Logger
	now         func() time.Time
}

func NewService(store VehicleStore, broadcaster Broadcaster, log *zap.Logger) *Service {
	return &Service{
		store:       store,
		broadcaster: broadcaster,
		log:         log,
		now:         time.Now,
	}
}

// Ingest applies one position report. Validation and authorization failures
// reject the report with no state mutation and no broadcast. History append
// and the geo index are best effort; their failure never blocks the broadcast.
func (s *Service) Ingest(ctx context.Context, r Report) error {
	if err := r.Location.Validate(); err != nil {
		metrics.PositionsRejected.WithLabelValues("validation").Inc()
		return err
	}

	v, err := s.store.Get(ctx, r.VehicleID)
	if err != nil {
		metrics.PositionsRejected.WithLabelValues("store").Inc()
		return err
	}
	if v == nil {
		metrics.PositionsRejected.WithLabelValues("unauthorized").Inc()
		return ErrNotFound
	}
	if !v.Reportable() {
		metrics.PositionsRejected.WithLabelValues("unauthorized").Inc()
		return ErrUnauthorized
	}

	now := s.now()
	loc := r.Location
	if loc.Timestamp.IsZero() {
		loc.Timestamp = now
	}

	if err := s.store.ApplyLocation(ctx, v.ID, loc, now); err != nil {
		metrics.PositionsRejected.WithLabelValues("store").Inc()
		return err
	}
	metrics.PositionsAccepted.Inc()

	if err := s.store.AppendHistory(ctx, HistoryEntry{VehicleID: v.ID, Location: loc, CreatedAt: now}); err != nil {
		s.log.Warn("history append failed", zap.String("vehicle_id", string(v.ID)), zap.Error(err))
	}
	if err := s.store.GeoSet(ctx, v.ID, loc.Point()); err != nil {
		s.log.Warn("geo index update failed", zap.String("vehicle_id", string(v.ID)), zap.Error(err))
	}

	s.broadcaster.BroadcastLocation(LocationBroadcast{
		VehicleID:   v.ID,
		Number:      v.Number,
		Plate:       v.Plate,
		VehicleType: v.VehicleType,
		Location:    loc,
		Online:      true,
	})
	return nil
}

// Live returns the online vehicles with their last accepted locations.
func (s *Service) Live(ctx context.Context) ([]Vehicle, error) {
	return s.store.ListOnline(ctx)
}

// Nearby returns ids of online vehicles within radiusKm of p, closest first.
func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	return s.store.Nearby(ctx, p, radiusKm)
}

// History returns the position history for one vehicle since the given time.
func (s *Service) History(ctx context.Context, id types.ID, since time.Time) ([]HistoryEntry, error) {
	return s.store.HistorySince(ctx, id, since)
}
