package config

import (
	"strings"
	"testing"
	"time"
)

func clearEngramEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENGRAM_DB", "ENGRAM_DUP_THRESHOLD", "ENGRAM_RELATES_THRESHOLD",
		"ENGRAM_CONFLICT_THRESHOLD", "ENGRAM_WORKERS",
		"ENGRAM_MAX_CONCURRENT_API_CALLS", "ENGRAM_POLL_INTERVAL",
		"ENGRAM_EMBED_PROVIDER", "ENGRAM_SWEEP_INTERVAL",
		"ENGRAM_PRIMER_INGEST_THRESHOLD", "ENGRAM_PRIMER_MAX_AGE",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEngramEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DupThreshold != 0.95 || cfg.RelatesThreshold != 0.65 || cfg.ConflictThreshold != 0.55 {
		t.Errorf("unexpected default thresholds: %+v", cfg)
	}
	if cfg.Workers != 2 || cfg.MaxProviderCalls != 5 {
		t.Errorf("unexpected default concurrency: workers=%d calls=%d", cfg.Workers, cfg.MaxProviderCalls)
	}
	if cfg.EmbedProvider != "ollama" {
		t.Errorf("default embed provider = %q", cfg.EmbedProvider)
	}
	if cfg.SweepInterval != time.Hour || cfg.PrimerIngestThreshold != 10 {
		t.Errorf("unexpected sweep/primer defaults: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.DBPath, "engram.db") {
		t.Errorf("default DB path = %q", cfg.DBPath)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEngramEnv(t)
	t.Setenv("ENGRAM_DB", "/tmp/test.db")
	t.Setenv("ENGRAM_WORKERS", "7")
	t.Setenv("ENGRAM_DUP_THRESHOLD", "0.9")
	t.Setenv("ENGRAM_POLL_INTERVAL", "250ms")
	t.Setenv("ENGRAM_EMBED_PROVIDER", "mock")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.DBPath != "/tmp/test.db" || cfg.Workers != 7 {
		t.Errorf("string/int overrides ignored: %+v", cfg)
	}
	if cfg.DupThreshold != 0.9 || cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("float/duration overrides ignored: %+v", cfg)
	}
	if cfg.EmbedProvider != "mock" {
		t.Errorf("embed provider override ignored: %q", cfg.EmbedProvider)
	}
}

func TestFromEnvRejectsUnorderedThresholds(t *testing.T) {
	clearEngramEnv(t)
	t.Setenv("ENGRAM_RELATES_THRESHOLD", "0.96")

	if _, err := FromEnv(); err == nil {
		t.Fatal("relates above dup should fail validation")
	}
}

func TestFromEnvRejectsZeroWorkers(t *testing.T) {
	clearEngramEnv(t)
	t.Setenv("ENGRAM_WORKERS", "0")

	if _, err := FromEnv(); err == nil {
		t.Fatal("zero workers should fail validation")
	}
}
