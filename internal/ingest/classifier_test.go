package ingest

import "testing"

func TestClassifyBands(t *testing.T) {
	b := Bands{Dup: 0.95, Relates: 0.65, Conflict: 0.55}

	cases := []struct {
		sim  float64
		want Action
	}{
		{1.00, ActionDuplicate},
		{0.95, ActionDuplicate}, // threshold belongs to the higher band
		{0.9499, ActionRelate},
		{0.65, ActionRelate},
		{0.6499, ActionConflict},
		{0.55, ActionConflict},
		{0.5499, ActionInsert},
		{0.0, ActionInsert},
		{-0.3, ActionInsert},
	}
	for _, tc := range cases {
		if got := b.Classify(tc.sim); got != tc.want {
			t.Errorf("Classify(%v) = %v, want %v", tc.sim, got, tc.want)
		}
	}
}
