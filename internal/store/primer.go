package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/engramkit/engram/internal/model"
	"github.com/engramkit/engram/internal/taxonomy"
)

// PrimerID is the fixed identity of the system primer. Regeneration replaces
// its content in place instead of minting a new memory.
const PrimerID = "primer"

// PrimerState returns how many memories were created since the last primer
// synthesis, and when that synthesis ran (zero time if never).
func (s *SQLiteStore) PrimerState(ctx context.Context) (int, time.Time, error) {
	var (
		count int
		last  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT ingested_since, last_synthesized_at FROM primer_state WHERE id = 1`).Scan(&count, &last)
	if err != nil {
		return 0, time.Time{}, err
	}
	var t time.Time
	if last.Valid && last.String != "" {
		t = parseTime(last.String)
	}
	return count, t, nil
}

// ResetPrimerState zeroes the ingestion counter and stamps the synthesis
// time. Called after a successful regeneration.
func (s *SQLiteStore) ResetPrimerState(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE primer_state SET ingested_since = 0, last_synthesized_at = ? WHERE id = 1`,
		fmtTime(now))
	return err
}

// UpsertPrimer writes the regenerated primer under its fixed identity at the
// reserved taxonomy path.
func (s *SQLiteStore) UpsertPrimer(ctx context.Context, content string, vec []float32) error {
	if content == "" {
		return fmt.Errorf("%w: empty primer content", model.ErrValidation)
	}
	now := fmtTime(time.Now().UTC())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, content, embedding, category_path, status, created_at, updated_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at`,
		PrimerID, content, encodeVector(vec), taxonomy.PrimerPath,
		string(model.StatusActive), now, now, now)
	return err
}

// GetPrimer returns the current system primer, or ErrNotFound before the
// first synthesis.
func (s *SQLiteStore) GetPrimer(ctx context.Context) (*model.Memory, error) {
	m, err := s.GetMemory(ctx, PrimerID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("primer not yet synthesized: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	s.touchAccessed(ctx, []string{PrimerID})
	return m, nil
}
