// Package sweep runs periodic lifecycle maintenance: TTL archiving, purge of
// aged-out rows, and staging-queue retention.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/engramkit/engram/internal/config"
	"github.com/engramkit/engram/internal/store"
)

// Sweeper periodically expires, purges, and reaps.
type Sweeper struct {
	store store.Store
	cfg   *config.Config
	log   *slog.Logger
}

// New builds a sweeper.
func New(st store.Store, cfg *config.Config, log *slog.Logger) *Sweeper {
	return &Sweeper{store: st, cfg: cfg, log: log}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one full maintenance pass. Each step is independent; a failing
// step is logged and the rest still run.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	archived, err := s.store.ArchiveExpired(ctx, now)
	if err != nil {
		s.log.Error("archive expired", "error", err)
	}

	grace := time.Duration(s.cfg.ArchiveGraceDays) * 24 * time.Hour
	purged, err := s.store.PurgeArchived(ctx, now.Add(-grace))
	if err != nil {
		s.log.Error("purge archived", "error", err)
	}

	retention := time.Duration(s.cfg.JobRetentionDays) * 24 * time.Hour
	reaped, err := s.store.ReapJobs(ctx, now.Add(-retention))
	if err != nil {
		s.log.Error("reap jobs", "error", err)
	}

	if archived+purged+reaped > 0 {
		s.log.Info("sweep complete", "archived", archived, "purged", purged, "jobs_reaped", reaped)
	}
}
