package store

import (
	"context"
	"fmt"
	"time"

	"github.com/engramkit/engram/internal/model"
	"github.com/engramkit/engram/internal/taxonomy"
)

// ArchiveExpired flips active memories whose TTL has passed to archived.
func (s *SQLiteStore) ArchiveExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memories SET status = ?, updated_at = ?
		WHERE status = ? AND ttl_at IS NOT NULL AND ttl_at <= ?`,
		string(model.StatusArchived), fmtTime(now), string(model.StatusActive), fmtTime(now))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// PurgeArchived hard-deletes archived and deleted rows that aged past the
// grace window, together with any edges still touching them.
func (s *SQLiteStore) PurgeArchived(ctx context.Context, before time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM edges WHERE from_id IN (
			SELECT id FROM memories WHERE status IN (?, ?) AND updated_at < ?
		) OR to_id IN (
			SELECT id FROM memories WHERE status IN (?, ?) AND updated_at < ?
		)`,
		string(model.StatusArchived), string(model.StatusDeleted), fmtTime(before),
		string(model.StatusArchived), string(model.StatusDeleted), fmtTime(before))
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM memories WHERE status IN (?, ?) AND updated_at < ?`,
		string(model.StatusArchived), string(model.StatusDeleted), fmtTime(before))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

// PruneHistory hard-deletes superseded versions older than the cutoff. Their
// supersedes edges go with them, truncating version chains at the cutoff.
func (s *SQLiteStore) PruneHistory(ctx context.Context, before time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM edges WHERE from_id IN (
			SELECT id FROM memories WHERE status = ? AND updated_at < ?
		) OR to_id IN (
			SELECT id FROM memories WHERE status = ? AND updated_at < ?
		)`,
		string(model.StatusSuperseded), fmtTime(before),
		string(model.StatusSuperseded), fmtTime(before))
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM memories WHERE status = ? AND updated_at < ?`,
		string(model.StatusSuperseded), fmtTime(before))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

// VerificationDue lists active memories whose verification deadline has
// passed, soonest first.
func (s *SQLiteStore) VerificationDue(ctx context.Context, now time.Time, limit int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryCols+` FROM memories
		WHERE status = ? AND verify_after IS NOT NULL AND verify_after <= ?
		ORDER BY verify_after LIMIT ?`,
		string(model.StatusActive), fmtTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// RenameCategory moves a whole subtree in one transaction: every memory at
// oldPrefix or below is re-rooted under newPrefix. Returns how many rows
// moved. Prefix validation belongs to the caller; the store only guarantees
// atomicity.
func (s *SQLiteStore) RenameCategory(ctx context.Context, oldPrefix, newPrefix string) (int, error) {
	if oldPrefix == "" || newPrefix == "" {
		return 0, fmt.Errorf("%w: empty category prefix", model.ErrValidation)
	}
	if oldPrefix == newPrefix {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE memories
		SET category_path = ? || substr(category_path, ?), updated_at = ?
		WHERE category_path = ? OR category_path LIKE ? || '.%'`,
		newPrefix, len(oldPrefix)+1, fmtTime(time.Now().UTC()), oldPrefix, oldPrefix)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// CategoryCounts returns active memory counts per category path, optionally
// scoped to a subtree. The primer's reserved path is excluded.
func (s *SQLiteStore) CategoryCounts(ctx context.Context, prefix string) ([]taxonomy.PathCount, error) {
	query := `
		SELECT category_path, COUNT(*) FROM memories
		WHERE status = ? AND category_path != ?`
	args := []any{string(model.StatusActive), taxonomy.PrimerPath}
	if prefix != "" {
		query += ` AND (category_path = ? OR category_path LIKE ? || '.%')`
		args = append(args, prefix, prefix)
	}
	query += ` GROUP BY category_path ORDER BY category_path`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taxonomy.PathCount
	for rows.Next() {
		var pc taxonomy.PathCount
		if err := rows.Scan(&pc.Path, &pc.Count); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// ProfileContents returns the content of every active memory under the
// profile root, in taxonomy order. Input for primer synthesis.
func (s *SQLiteStore) ProfileContents(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content FROM memories
		WHERE status = ? AND (category_path = ? OR category_path LIKE ? || '.%')
		ORDER BY category_path, created_at`,
		string(model.StatusActive), taxonomy.ProfilePrefix, taxonomy.ProfilePrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, rows.Err()
}

// ExportMemories returns all active memories, optionally scoped to a
// subtree, ordered by path then age.
func (s *SQLiteStore) ExportMemories(ctx context.Context, prefix string) ([]model.Memory, error) {
	query := `SELECT ` + memoryCols + ` FROM memories WHERE status = ?`
	args := []any{string(model.StatusActive)}
	if prefix != "" {
		query += ` AND (category_path = ? OR category_path LIKE ? || '.%')`
		args = append(args, prefix, prefix)
	}
	query += ` ORDER BY category_path, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
