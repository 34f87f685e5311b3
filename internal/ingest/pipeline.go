package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/engramkit/engram/internal/chunker"
	"github.com/engramkit/engram/internal/config"
	"github.com/engramkit/engram/internal/llm"
	"github.com/engramkit/engram/internal/model"
	"github.com/engramkit/engram/internal/store"
	"github.com/engramkit/engram/internal/taxonomy"
)

// Pipeline processes one staged ingestion end to end: split the text into
// sections, then per section extract, categorize, embed, dedup against the
// nearest existing memory, and commit the outcome with its edges. Sections
// of one ingestion are chained in document order via sequence edges.
type Pipeline struct {
	store    store.Store
	provider llm.Provider
	cfg      *config.Config
	log      *slog.Logger
}

// NewPipeline builds an ingestion pipeline.
func NewPipeline(st store.Store, provider llm.Provider, cfg *config.Config, log *slog.Logger) *Pipeline {
	return &Pipeline{store: st, provider: provider, cfg: cfg, log: log}
}

func (p *Pipeline) bands() Bands {
	return Bands{
		Dup:      p.cfg.DupThreshold,
		Relates:  p.cfg.RelatesThreshold,
		Conflict: p.cfg.ConflictThreshold,
	}
}

// ProcessJob runs a claimed staging job. A returned error fails the job; the
// provider client has already exhausted retries by the time an error
// surfaces here, so nothing is retried at this level. Section commits are
// idempotent, which makes a replay after a crash safe.
func (p *Pipeline) ProcessJob(ctx context.Context, job *model.StagingJob) error {
	if job.Payload.SchemaVersion != model.PayloadSchemaVersion {
		return fmt.Errorf("%w: unsupported payload schema version %d", model.ErrValidation, job.Payload.SchemaVersion)
	}
	text := strings.TrimSpace(job.Payload.Text)
	if text == "" {
		return fmt.Errorf("%w: empty ingestion text", model.ErrValidation)
	}
	if len(text) > p.cfg.MaxIngestTextLen {
		return fmt.Errorf("%w: ingestion text %d bytes exceeds limit %d", model.ErrValidation, len(text), p.cfg.MaxIngestTextLen)
	}

	opts := chunker.DefaultOptions()
	opts.MinLength = p.cfg.MinSectionLength
	sections := chunker.Split(text, opts)
	if len(sections) == 0 {
		p.log.Warn("ingestion produced no sections", "job", job.ID, "bytes", len(text))
		return nil
	}

	counts, err := p.store.CategoryCounts(ctx, "")
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}
	hints := taxonomyHints(counts, p.cfg.MaxTaxonomyHints)
	assign := newAssigner(counts, p.cfg.MaxSectionPaths)

	var prevID string
	for _, sec := range sections {
		effID, err := p.processSection(ctx, job, sec, hints, assign, prevID)
		if err != nil {
			return fmt.Errorf("section %d: %w", sec.Index, err)
		}
		prevID = effID
	}

	p.log.Info("ingestion complete", "job", job.ID, "sections", len(sections))
	return nil
}

func (p *Pipeline) processSection(ctx context.Context, job *model.StagingJob, sec chunker.Section, hints string, assign *assigner, prevID string) (string, error) {
	ext, err := p.provider.Extract(ctx, sec.Text, hints)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	content := strings.TrimSpace(ext.Content)
	if content == "" {
		content = sec.Text
	}
	path := assign.assign(ext.CategoryPaths)

	vec, err := p.provider.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embed: %w", err)
	}

	volatility := ext.Volatility
	switch volatility {
	case model.VolatilityStatic, model.VolatilityLow, model.VolatilityMedium, model.VolatilityHigh:
	default:
		volatility = model.VolatilityLow
	}

	now := time.Now().UTC()
	meta := map[string]string{"volatility": volatility}
	if job.Payload.Source != "" {
		meta["source"] = job.Payload.Source
	}
	if len(ext.Tags) > 0 {
		meta["tags"] = strings.Join(ext.Tags, ",")
	}

	mem := &model.Memory{
		ID:           model.ContentID(content),
		Content:      content,
		Embedding:    vec,
		CategoryPath: path,
		Metadata:     meta,
		VerifyAfter:  model.VerifyAfter(volatility, now),
	}
	if job.Payload.TTLDays > 0 {
		ttl := now.Add(time.Duration(job.Payload.TTLDays) * 24 * time.Hour)
		mem.TTLAt = &ttl
	}

	// Dedup against the candidate's primary path subtree first; the store
	// falls back to a global scan when the subtree is empty.
	edgeLimit := p.cfg.RelatedEdgeLimit
	if edgeLimit < 1 {
		edgeLimit = 1
	}
	neighbors, err := p.store.NearestActive(ctx, vec, path, edgeLimit)
	if err != nil {
		return "", fmt.Errorf("nearest: %w", err)
	}

	commit := store.SectionCommit{SequencePrev: prevID}
	action := ActionInsert
	var nearest store.Neighbor
	if len(neighbors) > 0 && neighbors[0].ID != mem.ID {
		nearest = neighbors[0]
		action = p.bands().Classify(nearest.Similarity)
	}

	switch action {
	case ActionInsert:
		commit.Memory = mem

	case ActionDuplicate:
		commit.DuplicateOf = nearest.ID
		commit.MergeMeta = meta

	case ActionRelate:
		commit.Memory = mem
		commit.RelatesTo = relateBand(neighbors, mem.ID, p.bands(), edgeLimit)

	case ActionConflict:
		verdict, err := p.provider.ResolveConflict(ctx, content, nearest.Content)
		if err != nil {
			// An unresolved conflict must not silently pick a side.
			return "", fmt.Errorf("resolve conflict with %s: %w", nearest.ID, err)
		}
		switch verdict {
		case llm.VerdictSupersede:
			commit.Memory = mem
			commit.Supersedes = nearest.ID
		case llm.VerdictKeepBoth:
			commit.Memory = mem
			commit.RelatesTo = []string{nearest.ID}
		case llm.VerdictKeepExisting:
			commit.DuplicateOf = nearest.ID
		default:
			return "", fmt.Errorf("unknown conflict verdict %q", verdict)
		}
		p.log.Info("conflict resolved",
			"job", job.ID, "candidate", mem.ID, "existing", nearest.ID,
			"similarity", nearest.Similarity, "verdict", string(verdict))
	}

	effID, created, err := p.store.CommitSection(ctx, commit)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	p.log.Debug("section committed",
		"job", job.ID, "memory", effID, "path", path,
		"action", action.String(), "created", created)
	return effID, nil
}

// relateBand collects the neighbors whose similarity falls inside the relate
// band, nearest first, capped at limit.
func relateBand(neighbors []store.Neighbor, selfID string, b Bands, limit int) []string {
	var ids []string
	for _, n := range neighbors {
		if len(ids) == limit {
			break
		}
		if n.ID == selfID || n.Similarity < b.Relates || n.Similarity >= b.Dup {
			continue
		}
		ids = append(ids, n.ID)
	}
	return ids
}

// taxonomyHints renders the busiest active paths as reuse hints for the
// extraction prompt.
func taxonomyHints(counts []taxonomy.PathCount, limit int) string {
	if len(counts) == 0 {
		return "(no existing paths yet)"
	}
	sorted := make([]taxonomy.PathCount, len(counts))
	copy(sorted, counts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Path < sorted[j].Path
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	var sb strings.Builder
	for _, pc := range sorted {
		fmt.Fprintf(&sb, "%s (%d)\n", pc.Path, pc.Count)
	}
	return strings.TrimRight(sb.String(), "\n")
}
