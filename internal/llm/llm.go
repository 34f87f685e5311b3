// Package llm defines the reasoning/embedding provider consumed by the
// ingestion pipeline and the primer synthesizer, with an Anthropic-backed
// reasoner and pluggable embedding backends.
package llm

import (
	"context"
)

// Extraction is the structured result of extracting one candidate section.
type Extraction struct {
	Content       string   `json:"content"`
	CategoryPaths []string `json:"category_paths"`
	Tags          []string `json:"tags,omitempty"`
	Volatility    string   `json:"volatility_class,omitempty"`
}

// Verdict is a conflict-resolution decision.
type Verdict string

const (
	// VerdictSupersede: the existing memory is outdated; the candidate
	// replaces it and the old version is preserved as history.
	VerdictSupersede Verdict = "supersede"
	// VerdictKeepBoth: both are valid independent facts; link them.
	VerdictKeepBoth Verdict = "keep_both"
	// VerdictKeepExisting: the candidate adds nothing; discard it.
	VerdictKeepExisting Verdict = "keep_existing"
)

// Provider is the narrow interface to the external reasoning/embedding
// collaborator. Implementations are fallible; the composite client in this
// package applies the shared retry policy, per-call timeout, and the
// concurrency gate uniformly.
type Provider interface {
	// Embed returns a fixed-dimension vector for the text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Extract cleans one candidate section and suggests category paths,
	// tags, and a volatility class. taxonomy lists currently active paths
	// as reuse hints.
	Extract(ctx context.Context, section, taxonomy string) (Extraction, error)

	// ResolveConflict judges an ambiguous candidate against the existing
	// memory it collided with.
	ResolveConflict(ctx context.Context, candidate, existing string) (Verdict, error)

	// SynthesizePrimer drafts the user-context prose for the system primer
	// from profile memory contents.
	SynthesizePrimer(ctx context.Context, profile, taxonomyTree string) (string, error)
}

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dims() int
}

// Reasoner is the text-reasoning half of the provider.
type Reasoner interface {
	Extract(ctx context.Context, section, taxonomy string) (Extraction, error)
	ResolveConflict(ctx context.Context, candidate, existing string) (Verdict, error)
	SynthesizePrimer(ctx context.Context, profile, taxonomyTree string) (string, error)
}
