// README: Retention sweepers; prune old position history and archive resolved alerts.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/config"
	"fleetwatch/internal/metrics"
)

// HistoryStore deletes expired position history rows.
type HistoryStore interface {
	DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertStore deletes resolved alerts past their retention window.
type AlertStore interface {
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper runs both retention loops. Deletions are best effort: a failed
// batch is logged and retried on the next scheduled run, since missed cleanup
// only delays storage reclamation.
type Sweeper struct {
	history HistoryStore
	alerts  AlertStore
	cfg     config.RetentionConfig
	log     *zap.Logger
	now     func() time.Time
}

func NewSweeper(history HistoryStore, alerts AlertStore, cfg config.RetentionConfig, log *zap.Logger) *Sweeper {
	return &Sweeper{
		history: history,
		alerts:  alerts,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

func (s *Sweeper) RunHistoryPruner(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HistoryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PruneHistory(ctx)
		}
	}
}

func (s *Sweeper) RunAlertArchiver(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.AlertInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ArchiveAlerts(ctx)
		}
	}
}

func (s *Sweeper) PruneHistory(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.HistoryWindow)
	n, err := s.history.DeleteHistoryBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("history prune failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return
	}
	metrics.HistoryPruned.Add(float64(n))
	if n > 0 {
		s.log.Info("position history pruned", zap.Int64("rows", n), zap.Time("cutoff", cutoff))
	}
}

func (s *Sweeper) ArchiveAlerts(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.AlertWindow)
	n, err := s.alerts.DeleteResolvedBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("alert archive failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return
	}
	metrics.AlertsArchived.Add(float64(n))
	if n > 0 {
		s.log.Info("resolved alerts archived", zap.Int64("rows", n), zap.Time("cutoff", cutoff))
	}
}
