// Package ingest turns staged raw text into classified, linked memories.
package ingest

import "fmt"

// Action is the classification of a candidate section against its nearest
// existing memory.
type Action int

const (
	// ActionInsert stores the candidate as a new memory.
	ActionInsert Action = iota
	// ActionDuplicate discards the candidate into the existing memory.
	ActionDuplicate
	// ActionRelate stores the candidate and links it to the neighbor.
	ActionRelate
	// ActionConflict defers to the conflict resolver.
	ActionConflict
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionDuplicate:
		return "duplicate"
	case ActionRelate:
		return "relate"
	case ActionConflict:
		return "conflict"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Bands maps a cosine similarity onto an action via three thresholds,
// ordered Conflict < Relates < Dup. Bands are half-open on the upper edge:
// a similarity exactly at a threshold belongs to the higher band.
type Bands struct {
	Dup      float64
	Relates  float64
	Conflict float64
}

// Classify buckets a similarity score.
//
//	sim >= Dup                  duplicate
//	Relates <= sim < Dup        relate
//	Conflict <= sim < Relates   conflict
//	sim < Conflict              insert
func (b Bands) Classify(sim float64) Action {
	switch {
	case sim >= b.Dup:
		return ActionDuplicate
	case sim >= b.Relates:
		return ActionRelate
	case sim >= b.Conflict:
		return ActionConflict
	}
	return ActionInsert
}
