// Package cli implements the engram CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engramkit/engram/internal/config"
	"github.com/engramkit/engram/internal/engine"
	"github.com/engramkit/engram/internal/llm"
	"github.com/engramkit/engram/internal/logging"
	"github.com/engramkit/engram/internal/primer"
	"github.com/engramkit/engram/internal/store"
)

// Version is stamped into the MCP server handshake.
const Version = "0.1.0"

var dbPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Self-organizing memory for AI agents",
	Long: "A durable memory store for autonomous agents: staged ingestion with\n" +
		"LLM extraction and deduplication, a self-maintained taxonomy, hybrid\n" +
		"retrieval, and a synthesized session primer. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $ENGRAM_DB or ~/.engram/engram.db)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DBPath)
}

// buildProvider assembles the retrying, gated provider client. Setting
// ENGRAM_EMBED_PROVIDER=mock swaps in the deterministic in-process provider,
// useful for offline runs and smoke tests.
func buildProvider(cfg *config.Config) llm.Provider {
	log := logging.FromEnv()
	policy := llm.Policy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
	}

	if cfg.EmbedProvider == "mock" {
		mock := llm.NewMock()
		if cfg.EmbedDim > 0 {
			mock.Dim = cfg.EmbedDim
		}
		return llm.NewClient(mock, mock, policy, cfg.CallTimeout, cfg.MaxProviderCalls, log)
	}

	var embedder llm.Embedder
	switch cfg.EmbedProvider {
	case "openai":
		embedder = llm.NewOpenAIEmbedder(cfg.EmbedBaseURL, os.Getenv("OPENAI_API_KEY"), cfg.EmbedModel, cfg.EmbedDim)
	default:
		embedder = llm.NewOllamaEmbedder(cfg.EmbedBaseURL, cfg.EmbedModel, cfg.EmbedDim)
	}

	reasoner := llm.NewAnthropicReasoner(llm.WithModel(cfg.AnthropicModel))
	return llm.NewClient(reasoner, embedder, policy, cfg.CallTimeout, cfg.MaxProviderCalls, log)
}

// buildEngine wires a one-shot engine for CLI commands. The serve command
// does its own wiring so it can share the provider with the workers.
func buildEngine(cfg *config.Config, st *store.SQLiteStore) *engine.Engine {
	log := logging.FromEnv()
	provider := buildProvider(cfg)
	trigger := primer.NewTrigger(st, provider, cfg, log)
	return engine.New(st, provider, trigger, cfg, log)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
