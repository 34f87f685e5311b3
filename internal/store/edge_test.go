package store

import (
	"context"
	"errors"
	"testing"

	"github.com/engramkit/engram/internal/model"
)

func TestSequenceEdgeInvariants(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := testMemory("Alpha section of the invariant test document.", "reference.doc")
	b := testMemory("Beta section of the invariant test document.", "reference.doc")
	c := testMemory("Gamma section of the invariant test document.", "reference.doc")
	mustCommit(t, s, SectionCommit{Memory: a})
	mustCommit(t, s, SectionCommit{Memory: b, SequencePrev: a.ID})
	mustCommit(t, s, SectionCommit{Memory: c})

	// a already has a next section; chaining a -> c must be rejected.
	_, _, err := s.CommitSection(ctx, SectionCommit{DuplicateOf: c.ID, SequencePrev: a.ID})
	if !errors.Is(err, model.ErrInvariant) {
		t.Fatalf("expected invariant error for second outgoing sequence edge, got %v", err)
	}

	// b -> a would close a cycle a -> b -> a.
	_, _, err = s.CommitSection(ctx, SectionCommit{DuplicateOf: a.ID, SequencePrev: b.ID})
	if !errors.Is(err, model.ErrInvariant) {
		t.Fatalf("expected invariant error for sequence cycle, got %v", err)
	}

	// Replaying the existing edge is a no-op, not a violation.
	if _, _, err := s.CommitSection(ctx, SectionCommit{DuplicateOf: b.ID, SequencePrev: a.ID}); err != nil {
		t.Fatalf("identical edge replay must succeed: %v", err)
	}
}

func TestSupersedesChainNeverCycles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v1 := testMemory("The API rate limit is one hundred per minute.", "reference.api")
	v2 := testMemory("The API rate limit is two hundred per minute.", "reference.api")
	mustCommit(t, s, SectionCommit{Memory: v1})
	mustCommit(t, s, SectionCommit{Memory: v2, Supersedes: v1.ID})

	// v1 superseding v2 would close the version loop.
	_, _, err := s.CommitSection(ctx, SectionCommit{
		Memory:     &model.Memory{ID: v1.ID, Content: v1.Content, CategoryPath: v1.CategoryPath},
		Supersedes: v2.ID,
	})
	if !errors.Is(err, model.ErrInvariant) {
		t.Fatalf("expected invariant error for supersedes cycle, got %v", err)
	}
}

func TestDocumentFromAnySection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sections := []*model.Memory{
		testMemory("Opening section describing the quarterly goals.", "projects.q3"),
		testMemory("Middle section describing the staffing plan now.", "projects.q3"),
		testMemory("Closing section describing the open risks ahead.", "projects.q3"),
	}
	prev := ""
	for _, m := range sections {
		mustCommit(t, s, SectionCommit{Memory: m, SequencePrev: prev})
		prev = m.ID
	}

	for _, entry := range sections {
		doc, err := s.Document(ctx, entry.ID)
		if err != nil {
			t.Fatalf("document from %s: %v", entry.ID, err)
		}
		if len(doc) != 3 {
			t.Fatalf("expected 3 sections from any entry point, got %d", len(doc))
		}
		for i, m := range doc {
			if m.ID != sections[i].ID {
				t.Fatalf("section %d out of order", i)
			}
		}
	}
}

func TestRelatesToIsAdvisoryAndUnbounded(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hub := testMemory("Central concept that everything else relates to.", "concepts.hub")
	mustCommit(t, s, SectionCommit{Memory: hub})

	spokes := []*model.Memory{
		testMemory("First satellite fact orbiting the central concept.", "concepts.a"),
		testMemory("Second satellite fact orbiting the central concept.", "concepts.b"),
		testMemory("Third satellite fact orbiting the central concept.", "concepts.c"),
	}
	for _, m := range spokes {
		mustCommit(t, s, SectionCommit{Memory: m, RelatesTo: []string{hub.ID}})
	}

	related, err := s.RelatedIDs(ctx, hub.ID)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(related) != 3 {
		t.Errorf("expected 3 advisory links, got %d", len(related))
	}
}
