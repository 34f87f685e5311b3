package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestShortTextIsOneSection(t *testing.T) {
	text := "A single short note that easily fits in one section."
	got := Split(text, Options{TargetSize: 800, MaxSize: 2400, MinLength: 10})
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %d", len(got))
	}
	if got[0].Text != text || got[0].Index != 0 {
		t.Errorf("section should carry the trimmed text at index 0")
	}
}

func TestTooShortTextIsDropped(t *testing.T) {
	if got := Split("tiny", DefaultOptions()); got != nil {
		t.Errorf("sub-minimum text should produce no sections, got %d", len(got))
	}
	if got := Split("   \n\n  ", DefaultOptions()); got != nil {
		t.Errorf("whitespace should produce no sections, got %d", len(got))
	}
}

func TestSplitsOnHeadings(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&sb, "# Heading %d\n%s\n\n", i, strings.Repeat("Body text with enough length to matter. ", 25))
	}
	got := Split(sb.String(), Options{TargetSize: 800, MaxSize: 2400, MinLength: 10})
	if len(got) != 3 {
		t.Fatalf("expected 3 heading sections, got %d", len(got))
	}
	for i, s := range got {
		if !strings.HasPrefix(s.Text, fmt.Sprintf("# Heading %d", i)) {
			t.Errorf("section %d should start with its heading, got %q", i, s.Text[:20])
		}
		if s.Index != i {
			t.Errorf("section %d carries index %d", i, s.Index)
		}
	}
}

func TestMergesSmallBlocksTowardTarget(t *testing.T) {
	// Many small paragraphs; total is over MaxSize so splitting kicks in,
	// but each resulting section should hold several merged paragraphs.
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "Paragraph %d holds one modest thought.\n\n\n", i)
	}
	got := Split(sb.String(), Options{TargetSize: 400, MaxSize: 800, MinLength: 10})
	if len(got) < 2 {
		t.Fatalf("expected multiple sections, got %d", len(got))
	}
	for _, s := range got {
		if len(s.Text) > 800 {
			t.Errorf("section exceeds max size: %d bytes", len(s.Text))
		}
	}
	if !strings.Contains(got[0].Text, "Paragraph 0") || !strings.Contains(got[0].Text, "Paragraph 1") {
		t.Error("adjacent small paragraphs should merge into one section")
	}
}

func TestOversizedBlockIsHardSplit(t *testing.T) {
	lines := strings.Repeat("An unbroken run of lines with no blank separators at all.\n", 60)
	got := Split(lines, Options{TargetSize: 500, MaxSize: 1000, MinLength: 10})
	if len(got) < 2 {
		t.Fatalf("expected a hard split, got %d sections", len(got))
	}
	for _, s := range got {
		if len(s.Text) > 1000 {
			t.Errorf("hard-split section still oversized: %d bytes", len(s.Text))
		}
	}
}

func TestDropsRuntsAfterSplit(t *testing.T) {
	text := strings.Repeat("Substantial paragraph with a full sentence of content here.\n\n\n", 50) + "ok\n"
	got := Split(text, Options{TargetSize: 400, MaxSize: 800, MinLength: 40})
	for _, s := range got {
		if len(s.Text) < 40 {
			t.Errorf("runt section survived: %q", s.Text)
		}
	}
}
