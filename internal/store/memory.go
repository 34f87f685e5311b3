package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/engramkit/engram/internal/model"
	"github.com/engramkit/engram/internal/taxonomy"
)

const memoryCols = `id, content, embedding, category_path, metadata, status, ttl_at, verify_after, created_at, updated_at, last_accessed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*model.Memory, error) {
	var (
		m           model.Memory
		embedding   []byte
		metadata    sql.NullString
		status      string
		ttlAt       sql.NullString
		verifyAfter sql.NullString
		createdAt   string
		updatedAt   string
		accessedAt  string
	)
	err := row.Scan(&m.ID, &m.Content, &embedding, &m.CategoryPath, &metadata,
		&status, &ttlAt, &verifyAfter, &createdAt, &updatedAt, &accessedAt)
	if err != nil {
		return nil, err
	}

	m.Embedding = decodeVector(embedding)
	m.Status = model.Status(status)
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", m.ID, err)
		}
	}
	if ttlAt.Valid {
		m.TTLAt = parseTimePtr(&ttlAt.String)
	}
	if verifyAfter.Valid {
		m.VerifyAfter = parseTimePtr(&verifyAfter.String)
	}
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	m.LastAccessedAt = parseTime(accessedAt)
	return &m, nil
}

func encodeMetadata(meta map[string]string) any {
	if len(meta) == 0 {
		return nil
	}
	b, _ := json.Marshal(meta)
	return string(b)
}

// GetMemory retrieves a single memory by ID.
func (s *SQLiteStore) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memoryCols+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("memory %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CommitSection atomically applies the outcome of one classified section: a
// new memory plus its edges, or a metadata merge into the existing memory
// that absorbed the candidate. Returns the memory ID that now represents the
// section in the graph, and whether a new row was created.
//
// Content-hash IDs plus ON CONFLICT upserts make commits idempotent, so a
// crashed job can be replayed without duplicating rows or edges.
func (s *SQLiteStore) CommitSection(ctx context.Context, c SectionCommit) (string, bool, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	var effective string
	created := false

	switch {
	case c.Memory != nil:
		m := c.Memory
		if m.ID == "" || m.Content == "" || m.CategoryPath == "" {
			return "", false, fmt.Errorf("%w: incomplete memory in section commit", model.ErrValidation)
		}

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE id = ?`, m.ID).Scan(&exists); err != nil {
			return "", false, err
		}
		if exists == 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO memories (id, content, embedding, category_path, metadata, status, ttl_at, verify_after, created_at, updated_at, last_accessed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				m.ID, m.Content, encodeVector(m.Embedding), m.CategoryPath,
				encodeMetadata(m.Metadata), string(model.StatusActive),
				fmtTimePtr(m.TTLAt), fmtTimePtr(m.VerifyAfter),
				fmtTime(now), fmtTime(now), fmtTime(now))
			if err != nil {
				return "", false, err
			}
			created = true
		} else {
			// Replay of an already-committed section: refresh the clock only.
			_, err = tx.ExecContext(ctx, `UPDATE memories SET updated_at = ? WHERE id = ?`, fmtTime(now), m.ID)
			if err != nil {
				return "", false, err
			}
		}
		effective = m.ID

		if c.Supersedes != "" && c.Supersedes != m.ID {
			if err := supersedeTx(ctx, tx, m.ID, c.Supersedes, now); err != nil {
				return "", false, err
			}
		}
		for _, rel := range c.RelatesTo {
			if rel == "" || rel == m.ID {
				continue
			}
			if err := addEdgeTx(ctx, tx, m.ID, rel, model.EdgeRelatesTo, now); err != nil {
				return "", false, err
			}
		}

	case c.DuplicateOf != "":
		if err := absorbTx(ctx, tx, c.DuplicateOf, c.MergeMeta, now); err != nil {
			return "", false, err
		}
		effective = c.DuplicateOf

	default:
		return "", false, fmt.Errorf("%w: empty section commit", model.ErrValidation)
	}

	if c.SequencePrev != "" && c.SequencePrev != effective {
		if err := addEdgeTx(ctx, tx, c.SequencePrev, effective, model.EdgeSequenceNext, now); err != nil {
			return "", false, err
		}
	}

	if created {
		if _, err := tx.ExecContext(ctx, `UPDATE primer_state SET ingested_since = ingested_since + 1 WHERE id = 1`); err != nil {
			return "", false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, err
	}
	return effective, created, nil
}

// absorbTx folds a discarded candidate into the existing memory it
// duplicates: metadata keys are union-merged with existing values winning,
// tags are unioned, and the row's clock is refreshed.
func absorbTx(ctx context.Context, tx *sql.Tx, id string, meta map[string]string, now time.Time) error {
	var raw sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT metadata FROM memories WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("absorb into %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return err
	}

	existing := map[string]string{}
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &existing); err != nil {
			return fmt.Errorf("decode metadata for %s: %w", id, err)
		}
	}
	merged := mergeMetadata(existing, meta)

	_, err = tx.ExecContext(ctx, `UPDATE memories SET metadata = ?, updated_at = ? WHERE id = ?`,
		encodeMetadata(merged), fmtTime(now), id)
	return err
}

// mergeMetadata unions incoming keys into existing. On key collision the
// existing value wins, except "tags", whose comma lists are unioned in
// first-seen order.
func mergeMetadata(existing, incoming map[string]string) map[string]string {
	if len(incoming) == 0 {
		return existing
	}
	merged := make(map[string]string, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		if k == "tags" {
			merged[k] = unionTags(merged[k], v)
			continue
		}
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return merged
}

func unionTags(a, b string) string {
	seen := map[string]bool{}
	var out []string
	for _, raw := range append(strings.Split(a, ","), strings.Split(b, ",")...) {
		tag := strings.TrimSpace(raw)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return strings.Join(out, ",")
}

// NearestActive returns the most similar active memories to vec, best first,
// at most limit of them. When pathPrefix is set the scan is scoped to that
// subtree first and falls back to a global scan if the subtree holds nothing
// comparable. The primer is never a dedup candidate.
func (s *SQLiteStore) NearestActive(ctx context.Context, vec []float32, pathPrefix string, limit int) ([]Neighbor, error) {
	if len(vec) == 0 || limit < 1 {
		return nil, nil
	}
	ns, err := s.nearestScan(ctx, vec, pathPrefix, limit)
	if err != nil {
		return nil, err
	}
	if len(ns) == 0 && pathPrefix != "" {
		return s.nearestScan(ctx, vec, "", limit)
	}
	return ns, nil
}

func (s *SQLiteStore) nearestScan(ctx context.Context, vec []float32, pathPrefix string, limit int) ([]Neighbor, error) {
	query := `SELECT id, content, embedding FROM memories
		WHERE status = 'active' AND embedding IS NOT NULL AND category_path != ?`
	args := []any{taxonomy.PrimerPath}
	if pathPrefix != "" {
		query += ` AND (category_path = ? OR category_path LIKE ? || '.%')`
		args = append(args, pathPrefix, pathPrefix)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ns []Neighbor
	for rows.Next() {
		var (
			id, content string
			blob        []byte
		)
		if err := rows.Scan(&id, &content, &blob); err != nil {
			return nil, err
		}
		ns = append(ns, Neighbor{ID: id, Content: content, Similarity: Cosine(vec, decodeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(ns, func(i, j int) bool { return ns[i].Similarity > ns[j].Similarity })
	if len(ns) > limit {
		ns = ns[:limit]
	}
	return ns, nil
}

// ConfirmValidity re-confirms a memory as still true, pushing its
// verification deadline forward per its volatility class. Returns the new
// deadline, nil for static facts.
func (s *SQLiteStore) ConfirmValidity(ctx context.Context, id string) (*time.Time, error) {
	m, err := s.GetMemory(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != model.StatusActive {
		return nil, fmt.Errorf("%w: memory %s is %s, not active", model.ErrValidation, id, m.Status)
	}

	now := time.Now().UTC()
	next := model.VerifyAfter(m.Metadata["volatility"], now)
	_, err = s.db.ExecContext(ctx, `UPDATE memories SET verify_after = ?, updated_at = ? WHERE id = ?`,
		fmtTimePtr(next), fmtTime(now), id)
	if err != nil {
		return nil, err
	}
	return next, nil
}

// DeleteMemory marks a memory deleted and removes all its edges. The row is
// kept for audit until the sweep purges it.
func (s *SQLiteStore) DeleteMemory(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE memories SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.StatusDeleted), fmtTime(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory %s: %w", id, model.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE from_id = ? OR to_id = ?`, id, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) touchAccessed(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	now := fmtTime(time.Now().UTC())
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, now)
	for _, id := range ids {
		args = append(args, id)
	}
	// Access tracking is best effort; a failed touch never fails a read.
	s.db.ExecContext(ctx, `UPDATE memories SET last_accessed_at = ? WHERE id IN (`+placeholders+`)`, args...)
}
