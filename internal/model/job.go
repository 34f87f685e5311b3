package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a staging job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobComplete   JobStatus = "complete"
	JobFailed     JobStatus = "failed"
)

// PayloadSchemaVersion is the current staging payload schema. Jobs written by
// older binaries keep their version so in-flight work survives upgrades.
const PayloadSchemaVersion = 1

// JobPayload is the tagged ingestion payload stored with a staging job.
type JobPayload struct {
	SchemaVersion int    `json:"schema_version"`
	Text          string `json:"text"`
	TTLDays       int    `json:"ttl_days,omitempty"`
	Source        string `json:"source,omitempty"`
}

// StagingJob is a queued unit of ingestion work.
type StagingJob struct {
	ID        string     `json:"id"`
	Payload   JobPayload `json:"payload"`
	Status    JobStatus  `json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DecodePayload parses a stored payload and rejects unknown schema versions.
func DecodePayload(raw []byte) (JobPayload, error) {
	var p JobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode job payload: %w", err)
	}
	if p.SchemaVersion != PayloadSchemaVersion {
		return p, fmt.Errorf("%w: unsupported payload schema version %d", ErrValidation, p.SchemaVersion)
	}
	return p, nil
}

// EdgeType is the relation kind between two memories.
type EdgeType string

const (
	// EdgeSequenceNext links a document section to the section that follows
	// it. At most one incoming and one outgoing per memory; never cyclic.
	EdgeSequenceNext EdgeType = "sequence_next"
	// EdgeRelatesTo is an advisory topical link. Unbounded, non-destructive.
	EdgeRelatesTo EdgeType = "relates_to"
	// EdgeSupersedes points from a replacement to the version it replaced.
	// At most one outgoing per memory; chains always terminate.
	EdgeSupersedes EdgeType = "supersedes"
)

// Edge is a directed relation between two memories.
type Edge struct {
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Type      EdgeType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
