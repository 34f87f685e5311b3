package taxonomy

import (
	"strings"
	"testing"
)

func TestRenderTreeAggregatesCounts(t *testing.T) {
	counts := []PathCount{
		{Path: "projects.app.decisions", Count: 3},
		{Path: "projects.app.notes", Count: 2},
		{Path: "reference.api", Count: 1},
	}
	out := RenderTree(counts, TreeOptions{})

	if !strings.Contains(out, "projects/ (5)") {
		t.Errorf("parent should aggregate child counts:\n%s", out)
	}
	if !strings.Contains(out, "reference/ (1)") {
		t.Errorf("missing second root:\n%s", out)
	}
	if !strings.Contains(out, "decisions") || !strings.Contains(out, "notes") {
		t.Errorf("leaves missing:\n%s", out)
	}
}

func TestRenderTreeCollapsesWideBranches(t *testing.T) {
	var counts []PathCount
	for _, label := range []string{"a", "b", "c", "d", "e", "f"} {
		counts = append(counts, PathCount{Path: "reference.topic_" + label + ".sub", Count: 1})
	}
	out := RenderTree(counts, TreeOptions{MaxBranchNodes: 3})

	if !strings.Contains(out, "more") {
		t.Errorf("wide branch should carry a collapse hint:\n%s", out)
	}
	if !strings.Contains(out, `explore_taxonomy("reference")`) {
		t.Errorf("collapse hint should point at the parent path:\n%s", out)
	}
}

func TestRenderTreeEmpty(t *testing.T) {
	if out := RenderTree(nil, TreeOptions{}); out != "" {
		t.Errorf("empty taxonomy renders empty, got %q", out)
	}
}
