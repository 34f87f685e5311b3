package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	status := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Check a staged ingestion job",
		Args:  cobra.ExactArgs(1),
		Run:   runStatus,
	}

	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "Report staging-queue health",
		Run:   runJobs,
	}
	jobs.Flags().Bool("flush", false, "Drop every job that is not currently processing")

	RootCmd.AddCommand(status, jobs)
}

func runStatus(cmd *cobra.Command, args []string) {
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
	job, err := eng.JobStatus(cmd.Context(), args[0])
	if err != nil {
		exitErr("status", err)
	}
	printJSON(job)
}

func runJobs(cmd *cobra.Command, args []string) {
	flush, _ := cmd.Flags().GetBool("flush")

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

	if flush {
		dropped, err := eng.FlushJobs(cmd.Context())
		if err != nil {
			exitErr("flush", err)
		}
		printJSON(map[string]any{"dropped": dropped})
		return
	}

	stats, err := eng.QueueStats(cmd.Context())
	if err != nil {
		exitErr("jobs", err)
	}
	printJSON(stats)
}
