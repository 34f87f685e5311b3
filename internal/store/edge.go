package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/engramkit/engram/internal/model"
)

// maxChainLength bounds graph walks so a corrupted chain can never hang a
// traversal.
const maxChainLength = 10000

// addEdgeTx inserts an edge after enforcing the structural invariants of its
// type. Inserts are idempotent: re-adding an identical edge is a no-op.
func addEdgeTx(ctx context.Context, tx *sql.Tx, from, to string, typ model.EdgeType, now time.Time) error {
	if from == to {
		return fmt.Errorf("%w: self edge %s on %s", model.ErrInvariant, typ, from)
	}

	switch typ {
	case model.EdgeSequenceNext:
		// One outgoing per memory.
		if other, err := edgeEndpoint(ctx, tx, `SELECT to_id FROM edges WHERE from_id = ? AND type = ?`, from, typ); err != nil {
			return err
		} else if other != "" && other != to {
			return fmt.Errorf("%w: %s already has a next section", model.ErrInvariant, from)
		}
		// One incoming per memory.
		if other, err := edgeEndpoint(ctx, tx, `SELECT from_id FROM edges WHERE to_id = ? AND type = ?`, to, typ); err != nil {
			return err
		} else if other != "" && other != from {
			return fmt.Errorf("%w: %s already has a previous section", model.ErrInvariant, to)
		}
		if err := checkNoCycle(ctx, tx, from, to, typ); err != nil {
			return err
		}

	case model.EdgeSupersedes:
		if other, err := edgeEndpoint(ctx, tx, `SELECT to_id FROM edges WHERE from_id = ? AND type = ?`, from, typ); err != nil {
			return err
		} else if other != "" && other != to {
			return fmt.Errorf("%w: %s already supersedes another memory", model.ErrInvariant, from)
		}
		if err := checkNoCycle(ctx, tx, from, to, typ); err != nil {
			return err
		}

	case model.EdgeRelatesTo:
		// Advisory; no structural constraints.

	default:
		return fmt.Errorf("%w: unknown edge type %q", model.ErrValidation, typ)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO edges (from_id, to_id, type, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (from_id, to_id, type) DO NOTHING`,
		from, to, string(typ), fmtTime(now))
	return err
}

func edgeEndpoint(ctx context.Context, tx *sql.Tx, query, id string, typ model.EdgeType) (string, error) {
	var other string
	err := tx.QueryRowContext(ctx, query, id, string(typ)).Scan(&other)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return other, err
}

// checkNoCycle walks forward from `to` along edges of the given type; if the
// walk reaches `from`, inserting from->to would close a cycle.
func checkNoCycle(ctx context.Context, tx *sql.Tx, from, to string, typ model.EdgeType) error {
	cur := to
	for i := 0; i < maxChainLength; i++ {
		var next string
		err := tx.QueryRowContext(ctx, `SELECT to_id FROM edges WHERE from_id = ? AND type = ?`, cur, string(typ)).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if next == from {
			return fmt.Errorf("%w: %s edge %s -> %s would close a cycle", model.ErrInvariant, typ, from, to)
		}
		cur = next
	}
	return fmt.Errorf("%w: %s chain from %s exceeds %d hops", model.ErrInvariant, typ, to, maxChainLength)
}

// supersedeTx retires old in favor of new: flips old's status, moves old's
// document and topical edges onto new so chains stay walkable through the
// live version, and records the supersedes edge. Supersedes edges are never
// redirected; they are the version history itself.
func supersedeTx(ctx context.Context, tx *sql.Tx, newID, oldID string, now time.Time) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM memories WHERE id = ?`, oldID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("supersede %s: %w", oldID, model.ErrNotFound)
	}
	if err != nil {
		return err
	}

	if model.Status(status) == model.StatusActive {
		_, err = tx.ExecContext(ctx, `UPDATE memories SET status = ?, updated_at = ? WHERE id = ?`,
			string(model.StatusSuperseded), fmtTime(now), oldID)
		if err != nil {
			return err
		}
	}

	// Redirect sequence and topical edges old -> new, skipping self edges.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO edges (from_id, to_id, type, created_at)
		SELECT ?, to_id, type, created_at FROM edges
		WHERE from_id = ? AND type != ? AND to_id != ?
		ON CONFLICT (from_id, to_id, type) DO NOTHING`,
		newID, oldID, string(model.EdgeSupersedes), newID)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO edges (from_id, to_id, type, created_at)
		SELECT from_id, ?, type, created_at FROM edges
		WHERE to_id = ? AND type != ? AND from_id != ?
		ON CONFLICT (from_id, to_id, type) DO NOTHING`,
		newID, oldID, string(model.EdgeSupersedes), newID)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM edges WHERE (from_id = ? OR to_id = ?) AND type != ?`,
		oldID, oldID, string(model.EdgeSupersedes))
	if err != nil {
		return err
	}

	return addEdgeTx(ctx, tx, newID, oldID, model.EdgeSupersedes, now)
}

// Document reconstructs the full document containing the given memory by
// walking the sequence chain to its start and collecting sections in order.
func (s *SQLiteStore) Document(ctx context.Context, id string) ([]model.Memory, error) {
	if _, err := s.GetMemory(ctx, id); err != nil {
		return nil, err
	}

	start := id
	for i := 0; i < maxChainLength; i++ {
		prev, err := s.edgeQuery(ctx, `SELECT from_id FROM edges WHERE to_id = ? AND type = ?`, start, model.EdgeSequenceNext)
		if err != nil {
			return nil, err
		}
		if prev == "" {
			break
		}
		start = prev
	}

	var out []model.Memory
	cur := start
	for i := 0; i < maxChainLength && cur != ""; i++ {
		m, err := s.GetMemory(ctx, cur)
		if err != nil {
			return nil, err
		}
		if m.Status == model.StatusActive {
			out = append(out, *m)
		}
		cur, err = s.edgeQuery(ctx, `SELECT to_id FROM edges WHERE from_id = ? AND type = ?`, cur, model.EdgeSequenceNext)
		if err != nil {
			return nil, err
		}
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	s.touchAccessed(ctx, ids)
	return out, nil
}

// History returns the full version chain containing the given memory,
// oldest first. It walks supersedes edges down to the root and up to the
// current version, so tracing from any version yields the same chain.
func (s *SQLiteStore) History(ctx context.Context, id string) ([]model.Memory, error) {
	if _, err := s.GetMemory(ctx, id); err != nil {
		return nil, err
	}

	// Down to the oldest version.
	var older []string
	cur := id
	for i := 0; i < maxChainLength; i++ {
		prev, err := s.edgeQuery(ctx, `SELECT to_id FROM edges WHERE from_id = ? AND type = ?`, cur, model.EdgeSupersedes)
		if err != nil {
			return nil, err
		}
		if prev == "" {
			break
		}
		older = append(older, prev)
		cur = prev
	}

	// Up to the newest version.
	var newer []string
	cur = id
	for i := 0; i < maxChainLength; i++ {
		next, err := s.edgeQuery(ctx, `SELECT from_id FROM edges WHERE to_id = ? AND type = ?`, cur, model.EdgeSupersedes)
		if err != nil {
			return nil, err
		}
		if next == "" {
			break
		}
		newer = append(newer, next)
		cur = next
	}

	// oldest ... id ... newest
	ids := make([]string, 0, len(older)+1+len(newer))
	for i := len(older) - 1; i >= 0; i-- {
		ids = append(ids, older[i])
	}
	ids = append(ids, id)
	ids = append(ids, newer...)

	out := make([]model.Memory, 0, len(ids))
	for _, mid := range ids {
		m, err := s.GetMemory(ctx, mid)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// RelatedIDs returns the advisory topical neighbors of a memory.
func (s *SQLiteStore) RelatedIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CASE WHEN from_id = ? THEN to_id ELSE from_id END
		FROM edges WHERE (from_id = ? OR to_id = ?) AND type = ?
		ORDER BY created_at`,
		id, id, id, string(model.EdgeRelatesTo))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var other string
		if err := rows.Scan(&other); err != nil {
			return nil, err
		}
		out = append(out, other)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) edgeQuery(ctx context.Context, query, id string, typ model.EdgeType) (string, error) {
	var other string
	err := s.db.QueryRowContext(ctx, query, id, string(typ)).Scan(&other)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return other, err
}
