package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [text]",
		Short: "Stage text for background ingestion",
		Long: "Stages raw text into the durable job queue and prints the job ID.\n" +
			"Reads stdin when no argument is given. Processing happens in a\n" +
			"running serve instance (or later, when one starts).",
		Args: cobra.MaximumNArgs(1),
		Run:  runIngest,
	}

	cmd.Flags().Int("ttl-days", 0, "Archive the resulting memories after this many days")
	cmd.Flags().String("source", "", "Provenance label stored with the memories")
	cmd.Flags().String("file", "", "Read text from a file instead of args/stdin")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	ttlDays, _ := cmd.Flags().GetInt("ttl-days")
	source, _ := cmd.Flags().GetString("source")
	file, _ := cmd.Flags().GetString("file")

	var text string
	switch {
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			exitErr("read file", err)
		}
		text = string(b)
	case len(args) == 1:
		text = args[0]
	default:
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		text = string(b)
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(os.Stderr, "error: nothing to ingest")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	eng := buildEngine(cfg, st)
	job, err := eng.SubmitIngestion(cmd.Context(), text, ttlDays, source)
	if err != nil {
		exitErr("ingest", err)
	}
	printJSON(map[string]any{"job_id": job.ID, "status": job.Status})
}
