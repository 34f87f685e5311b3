package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

// Mock is a deterministic in-process Provider for tests and offline runs.
// Embeddings are derived from content hashes, so identical text always embeds
// identically and unrelated text lands near-orthogonal. Individual calls can
// be overridden per test via the Fn fields.
type Mock struct {
	Dim int

	EmbedFn      func(ctx context.Context, text string) ([]float32, error)
	ExtractFn    func(ctx context.Context, section, taxonomy string) (Extraction, error)
	ResolveFn    func(ctx context.Context, candidate, existing string) (Verdict, error)
	SynthesizeFn func(ctx context.Context, profile, taxonomyTree string) (string, error)
}

// NewMock returns a mock provider with 64-dimension hash embeddings.
func NewMock() *Mock {
	return &Mock{Dim: 64}
}

func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFn != nil {
		return m.EmbedFn(ctx, text)
	}
	return HashVector(text, m.Dim), nil
}

func (m *Mock) Extract(ctx context.Context, section, taxonomy string) (Extraction, error) {
	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, section, taxonomy)
	}
	return Extraction{
		Content:       section,
		CategoryPaths: []string{"reference.unknown"},
		Volatility:    "low",
	}, nil
}

func (m *Mock) ResolveConflict(ctx context.Context, candidate, existing string) (Verdict, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, candidate, existing)
	}
	return VerdictKeepBoth, nil
}

func (m *Mock) SynthesizePrimer(ctx context.Context, profile, taxonomyTree string) (string, error) {
	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, profile, taxonomyTree)
	}
	if strings.TrimSpace(profile) == "" {
		return "", nil
	}
	return "Synthesized user context.", nil
}

func (m *Mock) Dims() int { return m.Dim }

// HashVector derives a unit vector deterministically from normalized text.
func HashVector(text string, dim int) []float32 {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(normalized))

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		// Stretch the digest across the vector by re-hashing per block.
		block := sha256.Sum256(append(sum[:], byte(i)))
		bits := binary.LittleEndian.Uint32(block[:4])
		v := float32(int32(bits)) / float32(math.MaxInt32)
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

var _ Provider = (*Mock)(nil)
var _ Embedder = (*Mock)(nil)
