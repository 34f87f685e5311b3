package ingest

import (
	"github.com/engramkit/engram/internal/taxonomy"
)

// assigner picks one category path per section while enforcing the
// per-ingestion budget for brand-new paths. Reusing an existing path is
// always free; minting new paths is bounded so a single noisy document
// cannot flood the taxonomy.
type assigner struct {
	known     map[string]bool
	minted    map[string]bool
	newBudget int
}

func newAssigner(existing []taxonomy.PathCount, newBudget int) *assigner {
	known := make(map[string]bool, len(existing))
	for _, pc := range existing {
		known[pc.Path] = true
	}
	return &assigner{
		known:     known,
		minted:    map[string]bool{},
		newBudget: newBudget,
	}
}

// assign returns the first usable candidate path: sanitized, valid, and
// either already known or within the new-path budget. Falls back to the
// catch-all when every candidate is rejected.
func (a *assigner) assign(candidates []string) string {
	for _, raw := range candidates {
		path := taxonomy.Sanitize(raw)
		if taxonomy.Validate(path) != nil || path == taxonomy.PrimerPath {
			continue
		}
		if a.known[path] || a.minted[path] {
			return path
		}
		if len(a.minted) < a.newBudget {
			a.minted[path] = true
			return path
		}
	}
	return taxonomy.DefaultPath
}
