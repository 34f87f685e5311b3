package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/engramkit/engram/internal/llm"
	"github.com/engramkit/engram/internal/model"
	"github.com/engramkit/engram/internal/taxonomy"
)

func TestPrimerStateCountsCreations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	count, last, err := s.PrimerState(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if count != 0 || !last.IsZero() {
		t.Fatalf("fresh store should have zero state, got %d %v", count, last)
	}

	mustCommit(t, s, SectionCommit{Memory: testMemory("First tracked creation for the primer counter.", "reference.a")})
	mustCommit(t, s, SectionCommit{Memory: testMemory("Second tracked creation for the primer counter.", "reference.b")})
	// Duplicates do not move the counter.
	dup := testMemory("First tracked creation for the primer counter.", "reference.a")
	mustCommit(t, s, SectionCommit{DuplicateOf: dup.ID})

	count, _, _ = s.PrimerState(ctx)
	if count != 2 {
		t.Fatalf("expected 2 creations counted, got %d", count)
	}

	now := time.Now().UTC()
	if err := s.ResetPrimerState(ctx, now); err != nil {
		t.Fatalf("reset: %v", err)
	}
	count, last, _ = s.PrimerState(ctx)
	if count != 0 {
		t.Errorf("reset should zero the counter, got %d", count)
	}
	if last.IsZero() {
		t.Error("reset should stamp the synthesis time")
	}
}

func TestUpsertPrimerKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetPrimer(ctx); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found before first synthesis, got %v", err)
	}

	if err := s.UpsertPrimer(ctx, "version one", llm.HashVector("version one", 64)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	first, err := s.GetPrimer(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.CategoryPath != taxonomy.PrimerPath {
		t.Errorf("primer must live at the reserved path, got %q", first.CategoryPath)
	}

	if err := s.UpsertPrimer(ctx, "version two", llm.HashVector("version two", 64)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	second, _ := s.GetPrimer(ctx)
	if second.ID != first.ID {
		t.Error("regeneration must not mint a new identity")
	}
	if second.Content != "version two" {
		t.Errorf("content should be replaced, got %q", second.Content)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("created_at must survive regeneration")
	}
}
