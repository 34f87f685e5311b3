package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/engramkit/engram/internal/engine"
	"github.com/engramkit/engram/internal/ingest"
	"github.com/engramkit/engram/internal/logging"
	"github.com/engramkit/engram/internal/mcp"
	"github.com/engramkit/engram/internal/primer"
	"github.com/engramkit/engram/internal/sweep"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server with background workers",
		Long: "Serves memory tools over MCP stdio while ingestion workers, the\n" +
			"lifecycle sweeper, and the primer trigger run in the background.",
		Run: runServe,
	}

	cmd.Flags().Bool("admin", false, "Also expose admin tools (delete, rename, flush, export)")
	cmd.Flags().Bool("no-workers", false, "Serve tools only; skip workers, sweeper, and primer trigger")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	admin, _ := cmd.Flags().GetBool("admin")
	noWorkers, _ := cmd.Flags().GetBool("no-workers")

	log := logging.FromEnv()
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	provider := buildProvider(cfg)
	pipeline := ingest.NewPipeline(st, provider, cfg, log)
	pool := ingest.NewPool(st, pipeline, cfg, log)
	sweeper := sweep.New(st, cfg, log)
	trigger := primer.NewTrigger(st, provider, cfg, log)
	eng := engine.New(st, provider, trigger, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if !noWorkers {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if err := pool.Run(ctx); err != nil {
				log.Error("worker pool", "error", err)
			}
		}()
		go func() {
			defer wg.Done()
			sweeper.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			trigger.Run(ctx)
		}()
	}

	log.Info("serving MCP over stdio",
		"db", cfg.DBPath, "workers", cfg.Workers, "admin", admin, "background", !noWorkers)

	// Blocks until the client closes stdin.
	if err := mcp.Run(eng, Version, admin); err != nil {
		log.Error("mcp server", "error", err)
	}

	stop()
	wg.Wait()
}
