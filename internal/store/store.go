// Package store provides the persistent memory store on SQLite: memories,
// graph edges, the staging job queue, hybrid retrieval, and primer state.
package store

import (
	"context"
	"time"

	"github.com/engramkit/engram/internal/model"
	"github.com/engramkit/engram/internal/taxonomy"
)

// SectionCommit describes the transactional outcome of classifying one
// ingested section. Exactly one of Memory or DuplicateOf is set: a new row
// plus its edges, or a pointer at the existing row that absorbs the
// candidate. Everything inside one commit is atomic.
type SectionCommit struct {
	// Memory is the new row to insert; nil when the candidate is discarded.
	Memory *model.Memory
	// DuplicateOf is the existing memory that absorbs a discarded
	// candidate (duplicate or keep_existing verdict).
	DuplicateOf string
	// MergeMeta carries candidate metadata to union-merge into
	// DuplicateOf. Existing keys win; tags are unioned.
	MergeMeta map[string]string
	// Supersedes flips the named memory to superseded and records a
	// supersedes edge from the new memory to it.
	Supersedes string
	// RelatesTo adds advisory relates_to edges from the new memory.
	RelatesTo []string
	// SequencePrev chains document order: a sequence_next edge from the
	// previous section's effective memory to this one.
	SequencePrev string
}

// Neighbor is an active memory ranked by similarity to a candidate embedding.
type Neighbor struct {
	ID         string
	Content    string
	Similarity float64
}

// SearchParams configures a hybrid retrieval query.
type SearchParams struct {
	Query      string
	Vector     []float32
	PathPrefix string
	Limit      int
}

// SearchResult is one fused retrieval hit.
type SearchResult struct {
	Memory   model.Memory `json:"memory"`
	Score    float64      `json:"score"`
	Semantic float64      `json:"semantic_score"`
	Keyword  float64      `json:"keyword_score"`
	// Context carries adjacent sequence-chain content around the hit.
	Context string `json:"context,omitempty"`
}

// QueueStats summarizes the staging queue.
type QueueStats struct {
	Counts           map[model.JobStatus]int `json:"counts"`
	OldestPendingAge time.Duration           `json:"oldest_pending_age"`
	RecentFailures   []model.StagingJob      `json:"recent_failures,omitempty"`
}

// Store is the persistence contract consumed by the pipeline, sweep, primer,
// and engine. *SQLiteStore is the only implementation; the interface exists
// so components can be tested against the pieces they use.
type Store interface {
	// Memories
	GetMemory(ctx context.Context, id string) (*model.Memory, error)
	CommitSection(ctx context.Context, c SectionCommit) (effectiveID string, createdNew bool, err error)
	NearestActive(ctx context.Context, vec []float32, pathPrefix string, limit int) ([]Neighbor, error)
	ConfirmValidity(ctx context.Context, id string) (*time.Time, error)
	DeleteMemory(ctx context.Context, id string) error
	RenameCategory(ctx context.Context, oldPrefix, newPrefix string) (int, error)
	CategoryCounts(ctx context.Context, prefix string) ([]taxonomy.PathCount, error)
	ProfileContents(ctx context.Context) ([]string, error)
	ExportMemories(ctx context.Context, prefix string) ([]model.Memory, error)

	// Graph traversals
	Document(ctx context.Context, id string) ([]model.Memory, error)
	History(ctx context.Context, id string) ([]model.Memory, error)
	RelatedIDs(ctx context.Context, id string) ([]string, error)

	// Retrieval
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)

	// Sweep
	ArchiveExpired(ctx context.Context, now time.Time) (int, error)
	PurgeArchived(ctx context.Context, before time.Time) (int, error)
	PruneHistory(ctx context.Context, before time.Time) (int, error)
	VerificationDue(ctx context.Context, now time.Time, limit int) ([]model.Memory, error)

	// Staging queue
	EnqueueJob(ctx context.Context, payload model.JobPayload) (*model.StagingJob, error)
	Job(ctx context.Context, id string) (*model.StagingJob, error)
	ClaimNextJob(ctx context.Context) (*model.StagingJob, error)
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id, msg string) error
	RecoverStaleJobs(ctx context.Context) (int, error)
	ReapJobs(ctx context.Context, before time.Time) (int, error)
	FlushJobs(ctx context.Context) (int, error)
	QueueStats(ctx context.Context) (*QueueStats, error)

	// Primer
	PrimerState(ctx context.Context) (int, time.Time, error)
	ResetPrimerState(ctx context.Context, now time.Time) error
	UpsertPrimer(ctx context.Context, content string, vec []float32) error
	GetPrimer(ctx context.Context) (*model.Memory, error)

	Close() error
}
