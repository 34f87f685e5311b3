package store

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/engramkit/engram/internal/model"
)

// rrfK is the reciprocal-rank-fusion constant: score = sum(1/(k+rank)).
const rrfK = 60

// Search runs hybrid retrieval: a cosine scan over embeddings and an FTS5
// keyword match, fused with reciprocal rank fusion. Either leg alone still
// produces results, so retrieval works without an embedder and for queries
// whose words never appear verbatim.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}
	// Deep per-leg candidate pools keep fusion meaningful at small limits.
	pool := limit * 5
	if pool < 50 {
		pool = 50
	}

	semantic, err := s.vectorLeg(ctx, p.Vector, p.PathPrefix, pool)
	if err != nil {
		return nil, err
	}
	keyword, err := s.keywordLeg(ctx, p.Query, p.PathPrefix, pool)
	if err != nil {
		return nil, err
	}

	type fused struct {
		id       string
		score    float64
		semantic float64
		keyword  float64
	}
	byID := map[string]*fused{}
	get := func(id string) *fused {
		f, ok := byID[id]
		if !ok {
			f = &fused{id: id}
			byID[id] = f
		}
		return f
	}
	for rank, hit := range semantic {
		f := get(hit.id)
		f.score += 1.0 / float64(rrfK+rank+1)
		f.semantic = hit.similarity
	}
	for rank, id := range keyword {
		f := get(id)
		f.score += 1.0 / float64(rrfK+rank+1)
		f.keyword = 1.0 / float64(rank+1)
	}

	ordered := make([]*fused, 0, len(byID))
	for _, f := range byID {
		ordered = append(ordered, f)
	}

	memories := make(map[string]*model.Memory, len(ordered))
	for _, f := range ordered {
		m, err := s.GetMemory(ctx, f.id)
		if err != nil {
			return nil, err
		}
		memories[f.id] = m
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		// Tie-break on recency so fresh facts surface first.
		return memories[ordered[i].id].CreatedAt.After(memories[ordered[j].id].CreatedAt)
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	results := make([]SearchResult, 0, len(ordered))
	ids := make([]string, 0, len(ordered))
	for _, f := range ordered {
		m := memories[f.id]
		ctxStr, err := s.sequenceContext(ctx, f.id)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			Memory:   *m,
			Score:    f.score,
			Semantic: f.semantic,
			Keyword:  f.keyword,
			Context:  ctxStr,
		})
		ids = append(ids, f.id)
	}
	s.touchAccessed(ctx, ids)
	return results, nil
}

type vectorHit struct {
	id         string
	similarity float64
}

func (s *SQLiteStore) vectorLeg(ctx context.Context, vec []float32, pathPrefix string, pool int) ([]vectorHit, error) {
	if len(vec) == 0 {
		return nil, nil
	}

	query := `SELECT id, embedding FROM memories WHERE status = 'active' AND embedding IS NOT NULL`
	var args []any
	if pathPrefix != "" {
		query += ` AND (category_path = ? OR category_path LIKE ? || '.%')`
		args = append(args, pathPrefix, pathPrefix)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []vectorHit
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		hits = append(hits, vectorHit{id: id, similarity: Cosine(vec, decodeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].similarity > hits[j].similarity })
	if len(hits) > pool {
		hits = hits[:pool]
	}
	return hits, nil
}

func (s *SQLiteStore) keywordLeg(ctx context.Context, query, pathPrefix string, pool int) ([]string, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlq := `
		SELECT m.id FROM memories_fts f
		JOIN memories m ON m.rowid = f.rowid
		WHERE memories_fts MATCH ? AND m.status = 'active'`
	args := []any{match}
	if pathPrefix != "" {
		sqlq += ` AND (m.category_path = ? OR m.category_path LIKE ? || '.%')`
		args = append(args, pathPrefix, pathPrefix)
	}
	sqlq += ` ORDER BY f.rank LIMIT ?`
	args = append(args, pool)

	rows, err := s.db.QueryContext(ctx, sqlq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var ftsToken = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// ftsQuery turns free text into a safe FTS5 OR query: bare tokens only, each
// quoted, so user punctuation can never break MATCH syntax.
func ftsQuery(query string) string {
	tokens := ftsToken.FindAllString(query, 12)
	if len(tokens) == 0 {
		return ""
	}
	for i, t := range tokens {
		tokens[i] = `"` + t + `"`
	}
	return strings.Join(tokens, " OR ")
}

// sequenceContext returns a short window of adjacent document sections around
// a hit, so retrieved fragments keep their narrative frame.
func (s *SQLiteStore) sequenceContext(ctx context.Context, id string) (string, error) {
	prev, err := s.edgeQuery(ctx, `SELECT from_id FROM edges WHERE to_id = ? AND type = ?`, id, model.EdgeSequenceNext)
	if err != nil {
		return "", err
	}
	next, err := s.edgeQuery(ctx, `SELECT to_id FROM edges WHERE from_id = ? AND type = ?`, id, model.EdgeSequenceNext)
	if err != nil {
		return "", err
	}

	var parts []string
	if prev != "" {
		if m, err := s.GetMemory(ctx, prev); err == nil && m.Status == model.StatusActive {
			parts = append(parts, "[prev] "+snippet(m.Content))
		}
	}
	if next != "" {
		if m, err := s.GetMemory(ctx, next); err == nil && m.Status == model.StatusActive {
			parts = append(parts, "[next] "+snippet(m.Content))
		}
	}
	return strings.Join(parts, "\n"), nil
}

func snippet(content string) string {
	const max = 200
	content = strings.Join(strings.Fields(content), " ")
	if len(content) > max {
		content = content[:max] + "…"
	}
	return content
}
