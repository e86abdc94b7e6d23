// README: Presence sweeper; periodically transitions silent reporters to offline.
package presence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/metrics"
	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/types"
)

// Store is the slice of the state store the sweep needs. MarkOffline must
// re-check last_seen against the cutoff at write time: the sweep's read and
// write are not one atomic step from the ingestion path's perspective.
type Store interface {
	ListSilent(ctx context.Context, cutoff time.Time) ([]tracking.Vehicle, error)
	MarkOffline(ctx context.Context, id types.ID, cutoff time.Time) (bool, error)
	GeoRemove(ctx context.Context, id types.ID) error
}

// Broadcaster publishes offline transitions to observer channels.
type Broadcaster interface {
	BroadcastOffline(id types.ID)
}

type Sweeper struct {
	store       Store
	broadcaster Broadcaster
	threshold   time.Duration
	interval    time.Duration
	log         *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

func NewSweeper(store Store, broadcaster Broadcaster, threshold, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		store:       store,
		broadcaster: broadcaster,
		threshold:   threshold,
		interval:    interval,
		log:         log,
		now:         time.Now,
	}
}

// Run executes Sweep once per interval until ctx is cancelled. It runs
// regardless of whether any sessions are connected.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one cycle. Per-reporter failures are logged and skipped; the
// remainder of the batch always runs.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.now()
	cutoff := now.Add(-s.threshold)

	vehicles, err := s.store.ListSilent(ctx, cutoff)
	if err != nil {
		s.log.Error("presence sweep query failed", zap.Error(err))
		metrics.SweepErrors.Inc()
		s.finish(now)
		return
	}

	for _, v := range vehicles {
		ok, err := s.store.MarkOffline(ctx, v.ID, cutoff)
		if err != nil {
			s.log.Warn("offline transition failed",
				zap.String("vehicle_id", string(v.ID)), zap.Error(err))
			metrics.SweepErrors.Inc()
			continue
		}
		if !ok {
			// A fresh report won the race; the reporter stays online.
			continue
		}
		if err := s.store.GeoRemove(ctx, v.ID); err != nil {
			s.log.Warn("geo index removal failed",
				zap.String("vehicle_id", string(v.ID)), zap.Error(err))
		}
		s.broadcaster.BroadcastOffline(v.ID)
		metrics.OfflineTransitions.Inc()
		s.log.Info("reporter marked offline",
			zap.String("vehicle_id", string(v.ID)),
			zap.Time("cutoff", cutoff))
	}
	s.finish(now)
}

func (s *Sweeper) finish(now time.Time) {
	s.mu.Lock()
	s.lastRun = now
	s.mu.Unlock()
	metrics.SweepLastRun.Set(float64(now.Unix()))
}

// LastRun reports when the last cycle completed; zero before the first cycle.
// Readiness checks use it as the sweeper-loop liveness signal.
func (s *Sweeper) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
