// Package model defines the core memory data types.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Status is the lifecycle state of a memory.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuperseded Status = "superseded"
	StatusArchived   Status = "archived"
	StatusDeleted    Status = "deleted"
)

// Memory is a stored, categorized unit of knowledge.
type Memory struct {
	ID             string            `json:"id"`
	Content        string            `json:"content"`
	Embedding      []float32         `json:"-"`
	CategoryPath   string            `json:"category_path"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Status         Status            `json:"status"`
	TTLAt          *time.Time        `json:"ttl_at,omitempty"`
	VerifyAfter    *time.Time        `json:"verify_after,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
}

// Tags returns the comma-separated tag list stored in metadata.
func (m *Memory) Tags() []string {
	raw := m.Metadata["tags"]
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ContentID derives the deterministic memory ID from normalized content.
// Re-ingesting identical text maps to the same row, which makes section
// commits idempotent under at-least-once job processing.
func ContentID(content string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(content), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Volatility classes map to verification intervals: how soon a stored fact
// should be re-confirmed with the user.
const (
	VolatilityStatic = "static"
	VolatilityLow    = "low"
	VolatilityMedium = "medium"
	VolatilityHigh   = "high"
)

// VerifyAfter returns the next verification deadline for a volatility class,
// or nil for static facts that never need re-confirmation.
func VerifyAfter(volatility string, from time.Time) *time.Time {
	var d time.Duration
	switch volatility {
	case VolatilityHigh:
		d = 7 * 24 * time.Hour
	case VolatilityMedium:
		d = 30 * 24 * time.Hour
	case VolatilityStatic:
		return nil
	default: // low and anything unrecognized
		d = 365 * 24 * time.Hour
	}
	t := from.Add(d)
	return &t
}
