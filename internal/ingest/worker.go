package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/engramkit/engram/internal/config"
	"github.com/engramkit/engram/internal/store"
)

// Pool runs the background ingestion workers. Each worker claims staging
// jobs one at a time; jobs never time out mid-run — a crash leaves them in
// processing, and the next startup resets those to pending before any worker
// claims.
type Pool struct {
	store    store.Store
	pipeline *Pipeline
	cfg      *config.Config
	log      *slog.Logger
}

// NewPool builds a worker pool around a pipeline.
func NewPool(st store.Store, pipeline *Pipeline, cfg *config.Config, log *slog.Logger) *Pool {
	return &Pool{store: st, pipeline: pipeline, cfg: cfg, log: log}
}

// Run recovers stale jobs, then drives the workers until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	recovered, err := p.store.RecoverStaleJobs(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		p.log.Info("recovered stale jobs", "count", recovered)
	}

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p.loop(ctx, worker)
		}(i)
	}
	wg.Wait()
	return nil
}

func (p *Pool) loop(ctx context.Context, worker int) {
	log := p.log.With("worker", worker)
	for {
		job, err := p.store.ClaimNextJob(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("claim job", "error", err)
		}
		if job == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.PollInterval):
			}
			continue
		}

		start := time.Now()
		log.Info("processing job", "job", job.ID, "bytes", len(job.Payload.Text))

		if err := p.pipeline.ProcessJob(ctx, job); err != nil {
			if ctx.Err() != nil {
				// Shutdown mid-job: leave it processing for startup recovery.
				return
			}
			log.Error("job failed", "job", job.ID, "error", err)
			if ferr := p.store.FailJob(ctx, job.ID, err.Error()); ferr != nil {
				log.Error("mark job failed", "job", job.ID, "error", ferr)
			}
			continue
		}

		if err := p.store.CompleteJob(ctx, job.ID); err != nil {
			log.Error("mark job complete", "job", job.ID, "error", err)
			continue
		}
		log.Info("job complete", "job", job.ID, "elapsed", time.Since(start))
	}
}
