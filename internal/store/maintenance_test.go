package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/engramkit/engram/internal/model"
)

func TestArchiveExpiredAndPurge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	expired := testMemory("Temporary note that should expire after its TTL.", "reference.scratch")
	past := time.Now().UTC().Add(-time.Hour)
	expired.TTLAt = &past
	eternal := testMemory("Permanent note with no expiry set on it at all.", "reference.keep")
	mustCommit(t, s, SectionCommit{Memory: expired})
	mustCommit(t, s, SectionCommit{Memory: eternal})

	archived, err := s.ArchiveExpired(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived != 1 {
		t.Fatalf("expected 1 archived, got %d", archived)
	}
	got, _ := s.GetMemory(ctx, expired.ID)
	if got.Status != model.StatusArchived {
		t.Errorf("expected archived, got %s", got.Status)
	}

	// Inside the grace window: nothing purged.
	purged, err := s.PurgeArchived(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 0 {
		t.Errorf("grace window must protect fresh archives, purged %d", purged)
	}

	// Past the grace window: the row goes away for good.
	purged, err = s.PurgeArchived(ctx, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	if _, err := s.GetMemory(ctx, expired.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("purged memory should be gone, got %v", err)
	}
	if _, err := s.GetMemory(ctx, eternal.ID); err != nil {
		t.Errorf("memory without TTL must survive: %v", err)
	}
}

func TestPruneHistoryDropsOldVersionsOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v1 := testMemory("The retention window is thirty days for raw logs.", "reference.logging")
	mustCommit(t, s, SectionCommit{Memory: v1})
	v2 := testMemory("The retention window is ninety days for raw logs.", "reference.logging")
	mustCommit(t, s, SectionCommit{Memory: v2, Supersedes: v1.ID})

	// Cutoff in the past: the superseded row is newer, so it survives.
	pruned, err := s.PruneHistory(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 0 {
		t.Errorf("recent history must survive, pruned %d", pruned)
	}

	pruned, err = s.PruneHistory(ctx, time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned, got %d", pruned)
	}
	if _, err := s.GetMemory(ctx, v1.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("pruned version should be gone, got %v", err)
	}
	if _, err := s.GetMemory(ctx, v2.ID); err != nil {
		t.Errorf("live version must survive pruning: %v", err)
	}
	// Its history chain is now just itself.
	hist, err := s.History(ctx, v2.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Errorf("expected truncated chain of 1, got %d", len(hist))
	}
}

func TestCategoryCountsExcludePrimerAndNonActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mustCommit(t, s, SectionCommit{Memory: testMemory("A durable fact about the deployment topology.", "projects.infra")})
	old := testMemory("An outdated fact about the deployment topology.", "projects.infra")
	mustCommit(t, s, SectionCommit{Memory: old})
	mustCommit(t, s, SectionCommit{
		Memory:     testMemory("A corrected fact about the deployment topology.", "projects.infra"),
		Supersedes: old.ID,
	})
	if err := s.UpsertPrimer(ctx, "# Memory Primer\n\n(empty)", nil); err != nil {
		t.Fatalf("primer: %v", err)
	}

	counts, err := s.CategoryCounts(ctx, "")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if len(counts) != 1 {
		t.Fatalf("expected one path, got %v", counts)
	}
	if counts[0].Path != "projects.infra" || counts[0].Count != 2 {
		t.Errorf("expected projects.infra=2 active, got %+v", counts[0])
	}
}

func TestProfileContents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mustCommit(t, s, SectionCommit{Memory: testMemory("Prefers concise answers without filler phrases.", "profile.preferences")})
	mustCommit(t, s, SectionCommit{Memory: testMemory("Works as a platform engineer on the infra team.", "profile.work")})
	mustCommit(t, s, SectionCommit{Memory: testMemory("A project fact that is not part of the profile.", "projects.misc")})

	contents, err := s.ProfileContents(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("expected 2 profile memories, got %d", len(contents))
	}
}
