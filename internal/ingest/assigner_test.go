package ingest

import (
	"testing"

	"github.com/engramkit/engram/internal/taxonomy"
)

func TestAssignerReusesExistingPathsFreely(t *testing.T) {
	existing := []taxonomy.PathCount{
		{Path: "projects.app", Count: 5},
		{Path: "reference.api", Count: 2},
	}
	a := newAssigner(existing, 0)

	if got := a.assign([]string{"projects.app"}); got != "projects.app" {
		t.Errorf("existing path should always be assignable, got %q", got)
	}
	if got := a.assign([]string{"reference.api", "projects.app"}); got != "reference.api" {
		t.Errorf("first usable candidate wins, got %q", got)
	}
}

func TestAssignerBudgetsNewPaths(t *testing.T) {
	a := newAssigner(nil, 2)

	if got := a.assign([]string{"projects.alpha"}); got != "projects.alpha" {
		t.Fatalf("first new path within budget, got %q", got)
	}
	if got := a.assign([]string{"projects.beta"}); got != "projects.beta" {
		t.Fatalf("second new path within budget, got %q", got)
	}
	if got := a.assign([]string{"projects.gamma"}); got != taxonomy.DefaultPath {
		t.Errorf("over-budget path must fall back to the catch-all, got %q", got)
	}
	// Re-using a path this ingestion already minted stays free.
	if got := a.assign([]string{"projects.alpha"}); got != "projects.alpha" {
		t.Errorf("minted path should stay assignable, got %q", got)
	}
}

func TestAssignerSanitizesAndGuards(t *testing.T) {
	a := newAssigner(nil, 3)

	if got := a.assign([]string{"User/Work Stuff"}); got != "profile.work_stuff" {
		t.Errorf("user root rewrites to profile, got %q", got)
	}
	if got := a.assign([]string{taxonomy.PrimerPath, "concepts.testing"}); got != "concepts.testing" {
		t.Errorf("the primer path is reserved, got %q", got)
	}
	if got := a.assign(nil); got != taxonomy.DefaultPath {
		t.Errorf("no candidates falls back to the catch-all, got %q", got)
	}
}
