package store

import (
	"context"
	"testing"

	"github.com/engramkit/engram/internal/llm"
)

func TestHybridSearchFusesLegs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	target := testMemory("Postgres connection pooling is capped at twenty connections.", "projects.db")
	noise := testMemory("The office coffee machine descales itself every Friday.", "reference.office")
	mustCommit(t, s, SectionCommit{Memory: target})
	mustCommit(t, s, SectionCommit{Memory: noise})

	results, err := s.Search(ctx, SearchParams{
		Query:  "postgres connection pooling",
		Vector: llm.HashVector("Postgres connection pooling is capped at twenty connections.", 64),
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Memory.ID != target.ID {
		t.Fatalf("target should rank first, got %s", results[0].Memory.ID)
	}
	if results[0].Semantic == 0 || results[0].Keyword == 0 {
		t.Errorf("both legs should have hit: semantic=%f keyword=%f", results[0].Semantic, results[0].Keyword)
	}
	// Present in both legs beats present in one.
	if len(results) > 1 && results[0].Score <= results[1].Score {
		t.Error("fused score of the double hit should dominate")
	}
}

func TestKeywordOnlySearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := testMemory("Grafana dashboards live under the observability folder.", "reference.infra")
	mustCommit(t, s, SectionCommit{Memory: m})

	// No query vector: the keyword leg alone must still retrieve.
	results, err := s.Search(ctx, SearchParams{Query: "grafana dashboards", Limit: 5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Memory.ID != m.ID {
		t.Fatalf("keyword leg should find the memory, got %d results", len(results))
	}
	if results[0].Semantic != 0 {
		t.Errorf("no vector leg ran, semantic should be 0, got %f", results[0].Semantic)
	}
}

func TestSearchScopedToSubtree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	inScope := testMemory("Deployment checklist for the payments service rollout.", "projects.payments")
	outScope := testMemory("Deployment checklist template kept for general reference.", "reference.templates")
	mustCommit(t, s, SectionCommit{Memory: inScope})
	mustCommit(t, s, SectionCommit{Memory: outScope})

	results, err := s.Search(ctx, SearchParams{Query: "deployment checklist", PathPrefix: "projects", Limit: 5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Memory.ID != inScope.ID {
		t.Fatalf("scope must exclude other subtrees, got %d results", len(results))
	}
}

func TestSearchExcludesNonActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old := testMemory("The billing cutoff is the fifth of the month.", "projects.billing")
	mustCommit(t, s, SectionCommit{Memory: old})
	replacement := testMemory("The billing cutoff is the tenth of the month.", "projects.billing")
	mustCommit(t, s, SectionCommit{Memory: replacement, Supersedes: old.ID})

	results, err := s.Search(ctx, SearchParams{Query: "billing cutoff", Limit: 5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if r.Memory.ID == old.ID {
			t.Fatal("superseded memories must not surface in search")
		}
	}
	if len(results) != 1 || results[0].Memory.ID != replacement.ID {
		t.Fatalf("expected only the live version, got %d results", len(results))
	}
}

func TestSearchCarriesSequenceContext(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := testMemory("Background on why the cache layer was introduced.", "projects.cache")
	b := testMemory("The cache eviction policy is least recently used.", "projects.cache")
	c := testMemory("Future work includes sharding the cache by tenant.", "projects.cache")
	mustCommit(t, s, SectionCommit{Memory: a})
	mustCommit(t, s, SectionCommit{Memory: b, SequencePrev: a.ID})
	mustCommit(t, s, SectionCommit{Memory: c, SequencePrev: b.ID})

	results, err := s.Search(ctx, SearchParams{Query: "cache eviction policy", Limit: 1})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got := results[0].Context
	if got == "" {
		t.Fatal("a mid-document hit should carry neighbor context")
	}
}

func TestFTSQuerySanitizesPunctuation(t *testing.T) {
	if q := ftsQuery(`"DROP TABLE"; --`); q != `"DROP" OR "TABLE"` {
		t.Errorf("unexpected fts query: %s", q)
	}
	if q := ftsQuery("!!!"); q != "" {
		t.Errorf("punctuation-only query should be empty, got %q", q)
	}
}
