// Package config loads engine configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds every externally tunable value. All fields have defaults; the
// environment overrides them (ENGRAM_* keys, plus the provider API keys).
type Config struct {
	// Storage
	DBPath string

	// Similarity bands, ordered ConflictThreshold < RelatesThreshold < DupThreshold.
	DupThreshold      float64
	RelatesThreshold  float64
	ConflictThreshold float64

	// Ingestion
	Workers           int
	MaxProviderCalls  int // concurrent reasoning/embedding calls across all workers
	PollInterval      time.Duration
	MinSectionLength  int
	MaxIngestTextLen  int
	MaxSectionPaths   int // per-ingestion category path budget
	MaxTaxonomyHints  int // active paths offered to the extraction prompt
	RelatedEdgeLimit  int // relates_to edges created per new memory

	// Provider
	AnthropicModel string
	EmbedProvider  string // "ollama" | "openai" | "mock"
	EmbedModel     string
	EmbedBaseURL   string
	EmbedDim       int

	// Retry policy for collaborator calls
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	CallTimeout  time.Duration

	// Sweep
	SweepInterval    time.Duration
	ArchiveGraceDays int
	JobRetentionDays int

	// Primer trigger
	PrimerIngestThreshold int
	PrimerMaxAge          time.Duration
	PrimerCheckInterval   time.Duration

	// Retrieval
	SearchLimit int
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:            envStr("ENGRAM_DB", defaultDBPath()),
		DupThreshold:      envFloat("ENGRAM_DUP_THRESHOLD", 0.95),
		RelatesThreshold:  envFloat("ENGRAM_RELATES_THRESHOLD", 0.65),
		ConflictThreshold: envFloat("ENGRAM_CONFLICT_THRESHOLD", 0.55),

		Workers:          envInt("ENGRAM_WORKERS", 2),
		MaxProviderCalls: envInt("ENGRAM_MAX_CONCURRENT_API_CALLS", 5),
		PollInterval:     envDuration("ENGRAM_POLL_INTERVAL", 2*time.Second),
		MinSectionLength: envInt("ENGRAM_MIN_SECTION_LENGTH", 80),
		MaxIngestTextLen: envInt("ENGRAM_MAX_INGEST_TEXT_LENGTH", 500000),
		MaxSectionPaths:  envInt("ENGRAM_MAX_SECTION_PATHS", 3),
		MaxTaxonomyHints: envInt("ENGRAM_MAX_TAXONOMY_HINTS", 40),
		RelatedEdgeLimit: envInt("ENGRAM_RELATED_EDGE_LIMIT", 6),

		AnthropicModel: envStr("ENGRAM_ANTHROPIC_MODEL", ""),
		EmbedProvider:  envStr("ENGRAM_EMBED_PROVIDER", "ollama"),
		EmbedModel:     envStr("ENGRAM_EMBED_MODEL", ""),
		EmbedBaseURL:   envStr("ENGRAM_EMBED_URL", ""),
		EmbedDim:       envInt("ENGRAM_EMBED_DIM", 768),

		MaxRetries:  envInt("ENGRAM_MAX_RETRIES", 5),
		BaseDelay:   envDuration("ENGRAM_RETRY_BASE_DELAY", 500*time.Millisecond),
		MaxDelay:    envDuration("ENGRAM_RETRY_MAX_DELAY", 10*time.Second),
		CallTimeout: envDuration("ENGRAM_CALL_TIMEOUT", 60*time.Second),

		SweepInterval:    envDuration("ENGRAM_SWEEP_INTERVAL", time.Hour),
		ArchiveGraceDays: envInt("ENGRAM_ARCHIVE_GRACE_DAYS", 30),
		JobRetentionDays: envInt("ENGRAM_JOB_RETENTION_DAYS", 7),

		PrimerIngestThreshold: envInt("ENGRAM_PRIMER_INGEST_THRESHOLD", 10),
		PrimerMaxAge:          envDuration("ENGRAM_PRIMER_MAX_AGE", time.Hour),
		PrimerCheckInterval:   envDuration("ENGRAM_PRIMER_CHECK_INTERVAL", time.Minute),

		SearchLimit: envInt("ENGRAM_SEARCH_LIMIT", 10),
	}

	if !(cfg.ConflictThreshold < cfg.RelatesThreshold && cfg.RelatesThreshold < cfg.DupThreshold) {
		return nil, fmt.Errorf("similarity thresholds must satisfy conflict (%.2f) < relates (%.2f) < dup (%.2f)",
			cfg.ConflictThreshold, cfg.RelatesThreshold, cfg.DupThreshold)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("ENGRAM_WORKERS must be at least 1")
	}
	if cfg.MaxProviderCalls < 1 {
		return nil, fmt.Errorf("ENGRAM_MAX_CONCURRENT_API_CALLS must be at least 1")
	}
	return cfg, nil
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".engram", "engram.db")
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
