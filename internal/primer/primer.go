// Package primer maintains the synthesized system primer: a standing
// briefing an agent reads at session start, holding a user-context summary
// and a map of the knowledge-base taxonomy.
package primer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/engramkit/engram/internal/config"
	"github.com/engramkit/engram/internal/llm"
	"github.com/engramkit/engram/internal/store"
	"github.com/engramkit/engram/internal/taxonomy"
)

// treeOptions keeps the rendered taxonomy small enough to sit inside a
// system prompt.
var treeOptions = taxonomy.TreeOptions{MaxDepth: 4, MaxBranchNodes: 8}

// Trigger debounces primer regeneration: it watches the ingestion counter
// and the primer's age, and regenerates when either crosses its threshold.
// Regeneration failures are logged, never raised — a stale primer beats a
// crashed server.
type Trigger struct {
	store    store.Store
	provider llm.Provider
	cfg      *config.Config
	log      *slog.Logger
}

// NewTrigger builds a primer trigger.
func NewTrigger(st store.Store, provider llm.Provider, cfg *config.Config, log *slog.Logger) *Trigger {
	return &Trigger{store: st, provider: provider, cfg: cfg, log: log}
}

// Run checks the trigger condition on an interval until ctx is cancelled.
func (t *Trigger) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.PrimerCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Check(ctx)
		}
	}
}

// Check regenerates the primer if it is due: enough ingestions since the
// last synthesis, or the synthesis itself aged out. Age alone counts because
// rename and delete change what the primer renders without bumping the
// ingestion counter. Safe to call concurrently with ingestion; the counter
// reset happens only after a successful write.
func (t *Trigger) Check(ctx context.Context) {
	count, last, err := t.store.PrimerState(ctx)
	if err != nil {
		t.log.Error("primer state", "error", err)
		return
	}
	if last.IsZero() {
		// Never synthesized: wait for the first ingestion.
		if count == 0 {
			return
		}
	} else if count < t.cfg.PrimerIngestThreshold && time.Since(last) < t.cfg.PrimerMaxAge {
		return
	}

	if err := t.Regenerate(ctx); err != nil {
		t.log.Error("primer regeneration failed", "error", err, "ingested_since", count)
		return
	}
	t.log.Info("primer regenerated", "ingested_since", count)
}

// Regenerate synthesizes and stores a fresh primer unconditionally.
func (t *Trigger) Regenerate(ctx context.Context) error {
	profile, err := t.store.ProfileContents(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	counts, err := t.store.CategoryCounts(ctx, "")
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}
	tree := taxonomy.RenderTree(counts, treeOptions)

	userContext, err := t.provider.SynthesizePrimer(ctx, strings.Join(profile, "\n\n"), tree)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	body := render(userContext, tree)
	vec, err := t.provider.Embed(ctx, body)
	if err != nil {
		// A primer without an embedding is still a usable primer.
		t.log.Warn("primer embedding failed", "error", err)
		vec = nil
	}

	if err := t.store.UpsertPrimer(ctx, body, vec); err != nil {
		return fmt.Errorf("store primer: %w", err)
	}
	return t.store.ResetPrimerState(ctx, time.Now().UTC())
}

func render(userContext, tree string) string {
	var sb strings.Builder
	sb.WriteString("# Memory Primer\n\n")
	if userContext != "" {
		sb.WriteString("## User Context\n\n")
		sb.WriteString(userContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString("## Knowledge Base\n\n")
	if tree == "" {
		sb.WriteString("(empty)\n")
	} else {
		sb.WriteString(tree)
		sb.WriteString("\n")
	}
	return sb.String()
}
