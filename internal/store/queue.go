package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/engramkit/engram/internal/model"
)

// EnqueueJob durably stages an ingestion payload and returns the accepted
// job. The caller gets its job ID back before any processing happens.
func (s *SQLiteStore) EnqueueJob(ctx context.Context, payload model.JobPayload) (*model.StagingJob, error) {
	if payload.SchemaVersion == 0 {
		payload.SchemaVersion = model.PayloadSchemaVersion
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode job payload: %w", err)
	}

	job := &model.StagingJob{
		ID:        s.newID(),
		Payload:   payload,
		Status:    model.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	job.UpdatedAt = job.CreatedAt

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO staging_jobs (id, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		job.ID, string(raw), string(job.Status), fmtTime(job.CreatedAt), fmtTime(job.UpdatedAt))
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Job retrieves a staging job by ID.
func (s *SQLiteStore) Job(ctx context.Context, id string) (*model.StagingJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, payload, status, error, created_at, updated_at
		FROM staging_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, model.ErrNotFound)
	}
	return job, err
}

func scanJob(row rowScanner) (*model.StagingJob, error) {
	var (
		job       model.StagingJob
		payload   string
		status    string
		jobErr    sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&job.ID, &payload, &status, &jobErr, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	// Tolerate payloads from newer schema versions when just reporting.
	if p, err := model.DecodePayload([]byte(payload)); err == nil {
		job.Payload = p
	} else {
		json.Unmarshal([]byte(payload), &job.Payload)
	}
	job.Status = model.JobStatus(status)
	job.Error = jobErr.String
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	return &job, nil
}

// ClaimNextJob atomically moves the oldest pending job to processing and
// returns it, or nil when the queue is idle. The guarded UPDATE makes the
// claim safe across concurrent workers.
func (s *SQLiteStore) ClaimNextJob(ctx context.Context) (*model.StagingJob, error) {
	for {
		var id string
		err := s.db.QueryRowContext(ctx, `
			SELECT id FROM staging_jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`,
			string(model.JobPending)).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		res, err := s.db.ExecContext(ctx, `
			UPDATE staging_jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(model.JobProcessing), fmtTime(time.Now().UTC()), id, string(model.JobPending))
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Lost the race to another worker; try the next candidate.
			continue
		}
		return s.Job(ctx, id)
	}
}

// CompleteJob marks a processing job complete.
func (s *SQLiteStore) CompleteJob(ctx context.Context, id string) error {
	return s.finishJob(ctx, id, model.JobComplete, "")
}

// FailJob marks a job failed with a diagnostic message.
func (s *SQLiteStore) FailJob(ctx context.Context, id, msg string) error {
	return s.finishJob(ctx, id, model.JobFailed, msg)
}

func (s *SQLiteStore) finishJob(ctx context.Context, id string, status model.JobStatus, msg string) error {
	var errVal any
	if msg != "" {
		errVal = msg
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE staging_jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errVal, fmtTime(time.Now().UTC()), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// RecoverStaleJobs resets jobs left in processing by a crashed run back to
// pending. Called once at worker startup, before any claims; section commits
// are idempotent, so replaying a half-finished job is safe.
func (s *SQLiteStore) RecoverStaleJobs(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE staging_jobs SET status = ?, updated_at = ? WHERE status = ?`,
		string(model.JobPending), fmtTime(time.Now().UTC()), string(model.JobProcessing))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ReapJobs deletes terminal jobs older than the cutoff.
func (s *SQLiteStore) ReapJobs(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM staging_jobs WHERE status IN (?, ?) AND updated_at < ?`,
		string(model.JobComplete), string(model.JobFailed), fmtTime(before))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// FlushJobs drops every job that is not currently processing. Admin surface
// for clearing a wedged queue.
func (s *SQLiteStore) FlushJobs(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM staging_jobs WHERE status != ?`, string(model.JobProcessing))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// QueueStats reports per-status counts, the age of the oldest pending job,
// and the most recent failures.
func (s *SQLiteStore) QueueStats(ctx context.Context) (*QueueStats, error) {
	stats := &QueueStats{Counts: map[model.JobStatus]int{}}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM staging_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Counts[model.JobStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var oldest sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT MIN(created_at) FROM staging_jobs WHERE status = ?`,
		string(model.JobPending)).Scan(&oldest)
	if err != nil {
		return nil, err
	}
	if oldest.Valid && oldest.String != "" {
		stats.OldestPendingAge = time.Since(parseTime(oldest.String))
	}

	frows, err := s.db.QueryContext(ctx, `
		SELECT id, payload, status, error, created_at, updated_at
		FROM staging_jobs WHERE status = ? ORDER BY updated_at DESC LIMIT 5`,
		string(model.JobFailed))
	if err != nil {
		return nil, err
	}
	defer frows.Close()
	for frows.Next() {
		job, err := scanJob(frows)
		if err != nil {
			return nil, err
		}
		job.Payload.Text = "" // keep stats lightweight
		stats.RecentFailures = append(stats.RecentFailures, *job)
	}
	return stats, frows.Err()
}
