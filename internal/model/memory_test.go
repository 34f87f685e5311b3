package model

import (
	"testing"
	"time"
)

func TestContentIDNormalizes(t *testing.T) {
	a := ContentID("The User prefers   dark mode.")
	b := ContentID("the user prefers dark\nmode.")
	if a != b {
		t.Error("case and whitespace differences should map to the same ID")
	}
	if len(a) != 64 {
		t.Errorf("expected a hex sha256, got %d chars", len(a))
	}
	if a == ContentID("the user prefers light mode.") {
		t.Error("different content should not collide")
	}
}

func TestVerifyAfterByVolatility(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		volatility string
		days       int
	}{
		{VolatilityHigh, 7},
		{VolatilityMedium, 30},
		{VolatilityLow, 365},
		{"", 365},
		{"garbage", 365},
	}
	for _, tc := range cases {
		got := VerifyAfter(tc.volatility, from)
		if got == nil {
			t.Errorf("VerifyAfter(%q) should not be nil", tc.volatility)
			continue
		}
		if want := from.AddDate(0, 0, tc.days); !got.Equal(want) {
			t.Errorf("VerifyAfter(%q) = %v, want %v", tc.volatility, got, want)
		}
	}
	if VerifyAfter(VolatilityStatic, from) != nil {
		t.Error("static facts never come due for verification")
	}
}

func TestTags(t *testing.T) {
	m := Memory{Metadata: map[string]string{"tags": "go, sqlite ,, infra"}}
	got := m.Tags()
	want := []string{"go", "sqlite", "infra"}
	if len(got) != len(want) {
		t.Fatalf("Tags() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tag %d = %q, want %q", i, got[i], want[i])
		}
	}
	if (&Memory{}).Tags() != nil {
		t.Error("no metadata means no tags")
	}
}
