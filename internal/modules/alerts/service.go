// README: Alert handler; broadcasts with priority, persists with bounded retries.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetwatch/internal/metrics"
	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/types"
)

var (
	ErrValidation        = errors.New("invalid alert submission")
	ErrNotFound          = errors.New("alert not found")
	ErrInvalidTransition = errors.New("invalid alert status transition")
	ErrConflict          = errors.New("alert status conflict")
)

const (
	persistAttempts = 3
	persistBackoff  = 200 * time.Millisecond
)

// AlertStore is the persistence surface for alert records.
type AlertStore interface {
	Insert(ctx context.Context, a *Alert) error
	Get(ctx context.Context, id types.ID) (*Alert, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, resolvedAt *time.Time) (bool, error)
	ListActive(ctx context.Context) ([]Alert, error)
}

// Broadcaster delivers the full alert payload to the administrative channel.
type Broadcaster interface {
	BroadcastAlert(a Alert)
}

type Service struct {
	store       AlertStore
	broadcaster Broadcaster
	log         *zap.Logger
	now         func() time.Time
	backoff     time.Duration
}

func NewService(store AlertStore, broadcaster Broadcaster, log *zap.Logger) *Service {
	return &Service{
		store:       store,
		broadcaster: broadcaster,
		log:         log,
		now:         time.Now,
		backoff:     persistBackoff,
	}
}

type CreateCommand struct {
	SenderID   types.ID
	SenderRole string
	SenderName string
	VehicleID  *types.ID
	Location   tracking.Location
	Message    string
}

// Create records and broadcasts a new emergency alert. Delivery latency to the
// administrative channel is the priority: the broadcast goes out before the
// persistence write is confirmed, and the alert is broadcast exactly once per
// creation. Persistence is retried a bounded number of times; exhausting the
// retries surfaces a durability warning but does not retract the broadcast.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Alert, error) {
	if cmd.SenderID == "" || cmd.SenderRole == "" {
		return nil, fmt.Errorf("%w: sender identity required", ErrValidation)
	}
	if err := cmd.Location.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	a := &Alert{
		ID:         types.ID(uuid.NewString()),
		SenderID:   cmd.SenderID,
		SenderRole: cmd.SenderRole,
		SenderName: cmd.SenderName,
		VehicleID:  cmd.VehicleID,
		Location:   cmd.Location,
		Message:    cmd.Message,
		Status:     StatusActive,
		CreatedAt:  s.now(),
	}

	s.broadcaster.BroadcastAlert(*a)
	metrics.AlertsCreated.Inc()

	if err := s.persistWithRetry(ctx, a); err != nil {
		metrics.AlertPersistFailures.Inc()
		s.log.Error("alert persistence failed after retries; notification already delivered",
			zap.String("alert_id", string(a.ID)), zap.Error(err))
		return a, fmt.Errorf("persist alert %s: %w", a.ID, err)
	}
	return a, nil
}

func (s *Service) persistWithRetry(ctx context.Context, a *Alert) error {
	var err error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		if err = s.store.Insert(ctx, a); err == nil {
			return nil
		}
		s.log.Warn("alert insert failed",
			zap.String("alert_id", string(a.ID)),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == persistAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
	return err
}

// UpdateStatus applies an externally-triggered status transition. Status only
// moves forward; anything else is rejected with the record unchanged.
func (s *Service) UpdateStatus(ctx context.Context, id types.ID, to Status) (*Alert, error) {
	if !ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if !CanTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}

	var resolvedAt *time.Time
	if to == StatusResolved {
		t := s.now()
		resolvedAt = &t
	}
	ok, err := s.store.UpdateStatus(ctx, id, a.Status, to, resolvedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	a.Status = to
	if resolvedAt != nil {
		a.ResolvedAt = resolvedAt
	}
	return a, nil
}

// Active lists alerts that are not yet resolved.
func (s *Service) Active(ctx context.Context) ([]Alert, error) {
	return s.store.ListActive(ctx)
}
