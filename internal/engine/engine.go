// Package engine is the façade over the store, pipeline, and primer: the
// operation surface exposed through MCP tools and the CLI.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/engramkit/engram/internal/config"
	"github.com/engramkit/engram/internal/llm"
	"github.com/engramkit/engram/internal/model"
	"github.com/engramkit/engram/internal/primer"
	"github.com/engramkit/engram/internal/store"
	"github.com/engramkit/engram/internal/taxonomy"
)

// Engine wires the persistent store and the provider into the public
// operations. It is safe for concurrent use.
type Engine struct {
	store    store.Store
	provider llm.Provider
	primer   *primer.Trigger
	cfg      *config.Config
	log      *slog.Logger
}

// New builds an engine.
func New(st store.Store, provider llm.Provider, pt *primer.Trigger, cfg *config.Config, log *slog.Logger) *Engine {
	return &Engine{store: st, provider: provider, primer: pt, cfg: cfg, log: log}
}

// SubmitIngestion validates raw text and stages it durably. The returned job
// carries the ID callers poll; processing happens in the background.
func (e *Engine) SubmitIngestion(ctx context.Context, text string, ttlDays int, source string) (*model.StagingJob, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty ingestion text", model.ErrValidation)
	}
	if len(text) > e.cfg.MaxIngestTextLen {
		return nil, fmt.Errorf("%w: text %d bytes exceeds limit %d", model.ErrValidation, len(text), e.cfg.MaxIngestTextLen)
	}
	if ttlDays < 0 {
		return nil, fmt.Errorf("%w: negative ttl_days", model.ErrValidation)
	}

	job, err := e.store.EnqueueJob(ctx, model.JobPayload{
		SchemaVersion: model.PayloadSchemaVersion,
		Text:          text,
		TTLDays:       ttlDays,
		Source:        source,
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("ingestion staged", "job", job.ID, "bytes", len(text), "ttl_days", ttlDays)
	return job, nil
}

// JobStatus reports a staged job, without echoing its full payload back.
func (e *Engine) JobStatus(ctx context.Context, id string) (*model.StagingJob, error) {
	job, err := e.store.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(job.Payload.Text) > 200 {
		job.Payload.Text = job.Payload.Text[:200] + "…"
	}
	return job, nil
}

// Search runs hybrid retrieval for a free-text query, optionally scoped to a
// taxonomy subtree.
func (e *Engine) Search(ctx context.Context, query, pathPrefix string, limit int) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", model.ErrValidation)
	}
	if limit <= 0 {
		limit = e.cfg.SearchLimit
	}
	if pathPrefix != "" {
		pathPrefix = taxonomy.Sanitize(pathPrefix)
	}

	vec, err := e.provider.Embed(ctx, query)
	if err != nil {
		// Degrade to keyword-only retrieval when the embedder is down.
		e.log.Warn("query embedding failed, keyword-only search", "error", err)
		vec = nil
	}

	return e.store.Search(ctx, store.SearchParams{
		Query:      query,
		Vector:     vec,
		PathPrefix: pathPrefix,
		Limit:      limit,
	})
}

// GetMemory returns one memory plus its advisory neighbors.
func (e *Engine) GetMemory(ctx context.Context, id string) (*model.Memory, []string, error) {
	m, err := e.store.GetMemory(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	related, err := e.store.RelatedIDs(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return m, related, nil
}

// FetchDocument reconstructs the document containing a memory, in section
// order.
func (e *Engine) FetchDocument(ctx context.Context, id string) ([]model.Memory, error) {
	return e.store.Document(ctx, id)
}

// TraceHistory returns a memory's version chain, oldest first.
func (e *Engine) TraceHistory(ctx context.Context, id string) ([]model.Memory, error) {
	return e.store.History(ctx, id)
}

// ConfirmValidity re-confirms a fact and returns its next verification
// deadline, nil for static facts.
func (e *Engine) ConfirmValidity(ctx context.Context, id string) (*time.Time, error) {
	return e.store.ConfirmValidity(ctx, id)
}

// VerificationDue lists active memories overdue for re-confirmation.
func (e *Engine) VerificationDue(ctx context.Context, limit int) ([]model.Memory, error) {
	return e.store.VerificationDue(ctx, time.Now().UTC(), limit)
}

// RenameCategory atomically moves a taxonomy subtree. Both prefixes must be
// valid paths; the primer's reserved path cannot be touched.
func (e *Engine) RenameCategory(ctx context.Context, oldPrefix, newPrefix string) (int, error) {
	oldPrefix = taxonomy.Sanitize(oldPrefix)
	newPrefix = taxonomy.Sanitize(newPrefix)
	if err := taxonomy.Validate(oldPrefix); err != nil {
		return 0, fmt.Errorf("%w: old prefix: %v", model.ErrValidation, err)
	}
	if err := taxonomy.Validate(newPrefix); err != nil {
		return 0, fmt.Errorf("%w: new prefix: %v", model.ErrValidation, err)
	}
	if taxonomy.Descends(taxonomy.PrimerPath, oldPrefix) || taxonomy.Descends(newPrefix, taxonomy.PrimerPath) {
		return 0, fmt.Errorf("%w: the primer path is reserved", model.ErrValidation)
	}
	if taxonomy.Descends(newPrefix, oldPrefix) {
		return 0, fmt.Errorf("%w: cannot move %s inside itself", model.ErrValidation, oldPrefix)
	}

	moved, err := e.store.RenameCategory(ctx, oldPrefix, newPrefix)
	if err != nil {
		return 0, err
	}
	e.log.Info("category renamed", "from", oldPrefix, "to", newPrefix, "moved", moved)
	return moved, nil
}

// GetPrimer returns the current system primer.
func (e *Engine) GetPrimer(ctx context.Context) (*model.Memory, error) {
	return e.store.GetPrimer(ctx)
}

// RegeneratePrimer forces primer synthesis right now.
func (e *Engine) RegeneratePrimer(ctx context.Context) (*model.Memory, error) {
	if err := e.primer.Regenerate(ctx); err != nil {
		return nil, err
	}
	return e.store.GetPrimer(ctx)
}

// ListCategories returns active path counts, optionally scoped.
func (e *Engine) ListCategories(ctx context.Context, prefix string) ([]taxonomy.PathCount, error) {
	if prefix != "" {
		prefix = taxonomy.Sanitize(prefix)
	}
	return e.store.CategoryCounts(ctx, prefix)
}

// ExploreTaxonomy renders a subtree as an indented tree, uncollapsed.
func (e *Engine) ExploreTaxonomy(ctx context.Context, prefix string) (string, error) {
	if prefix != "" {
		prefix = taxonomy.Sanitize(prefix)
	}
	counts, err := e.store.CategoryCounts(ctx, prefix)
	if err != nil {
		return "", err
	}
	if len(counts) == 0 {
		return "(no memories under this path)", nil
	}
	return taxonomy.RenderTree(counts, taxonomy.TreeOptions{}), nil
}

// DeleteMemory removes a memory and its edges. Admin surface.
func (e *Engine) DeleteMemory(ctx context.Context, id string) error {
	if err := e.store.DeleteMemory(ctx, id); err != nil {
		return err
	}
	e.log.Info("memory deleted", "memory", id)
	return nil
}

// PruneHistory drops superseded versions older than the given number of
// days. Admin surface.
func (e *Engine) PruneHistory(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("%w: negative prune window", model.ErrValidation)
	}
	cutoff := time.Now().UTC().Add(-time.Duration(olderThanDays) * 24 * time.Hour)
	return e.store.PruneHistory(ctx, cutoff)
}

// Export returns all active memories under a prefix for backup or migration.
func (e *Engine) Export(ctx context.Context, prefix string) ([]model.Memory, error) {
	if prefix != "" {
		prefix = taxonomy.Sanitize(prefix)
	}
	return e.store.ExportMemories(ctx, prefix)
}

// QueueStats reports staging-queue health.
func (e *Engine) QueueStats(ctx context.Context) (*store.QueueStats, error) {
	return e.store.QueueStats(ctx)
}

// FlushJobs clears every non-processing job from the staging queue.
func (e *Engine) FlushJobs(ctx context.Context) (int, error) {
	n, err := e.store.FlushJobs(ctx)
	if err != nil {
		return 0, err
	}
	e.log.Info("staging queue flushed", "dropped", n)
	return n, nil
}

// Diagnostics is a point-in-time health snapshot.
type Diagnostics struct {
	Queue           *store.QueueStats    `json:"queue"`
	Categories      int                  `json:"categories"`
	ActiveMemories  int                  `json:"active_memories"`
	PrimerAge       string               `json:"primer_age,omitempty"`
	PendingSince    string               `json:"primer_ingested_since,omitempty"`
	VerificationDue []model.Memory       `json:"verification_due,omitempty"`
	Thresholds      map[string]float64   `json:"thresholds"`
}

// Diagnose assembles the health snapshot.
func (e *Engine) Diagnose(ctx context.Context) (*Diagnostics, error) {
	queue, err := e.store.QueueStats(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := e.store.CategoryCounts(ctx, "")
	if err != nil {
		return nil, err
	}
	active := 0
	for _, pc := range counts {
		active += pc.Count
	}
	due, err := e.store.VerificationDue(ctx, time.Now().UTC(), 10)
	if err != nil {
		return nil, err
	}

	d := &Diagnostics{
		Queue:           queue,
		Categories:      len(counts),
		ActiveMemories:  active,
		VerificationDue: due,
		Thresholds: map[string]float64{
			"duplicate": e.cfg.DupThreshold,
			"relates":   e.cfg.RelatesThreshold,
			"conflict":  e.cfg.ConflictThreshold,
		},
	}
	if since, last, err := e.store.PrimerState(ctx); err == nil {
		if !last.IsZero() {
			d.PrimerAge = time.Since(last).Round(time.Second).String()
		}
		if since > 0 {
			d.PendingSince = fmt.Sprintf("%d", since)
		}
	}
	return d, nil
}
