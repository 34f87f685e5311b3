package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	export := &cobra.Command{
		Use:   "export [path]",
		Short: "Export active memories as JSON",
		Args:  cobra.MaximumNArgs(1),
		Run:   runExport,
	}

	del := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a memory and all its edges",
		Args:  cobra.ExactArgs(1),
		Run:   runDelete,
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Drop old superseded versions",
		Run:   runPrune,
	}
	prune.Flags().Int("older-than-days", 90, "Age in days beyond which superseded versions are dropped")

	diagnose := &cobra.Command{
		Use:   "diagnose",
		Short: "Print a health snapshot",
		Run:   runDiagnose,
	}

	RootCmd.AddCommand(export, del, prune, diagnose)
}

func runExport(cmd *cobra.Command, args []string) {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
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
	memories, err := eng.Export(cmd.Context(), prefix)
	if err != nil {
		exitErr("export", err)
	}
	printJSON(memories)
}

func runDelete(cmd *cobra.Command, args []string) {
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
	if err := eng.DeleteMemory(cmd.Context(), args[0]); err != nil {
		exitErr("rm", err)
	}
	printJSON(map[string]any{"deleted": args[0]})
}

func runPrune(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("older-than-days")

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
	pruned, err := eng.PruneHistory(cmd.Context(), days)
	if err != nil {
		exitErr("prune", err)
	}
	printJSON(map[string]any{"pruned": pruned})
}

func runDiagnose(cmd *cobra.Command, args []string) {
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
	diag, err := eng.Diagnose(cmd.Context())
	if err != nil {
		exitErr("diagnose", err)
	}
	printJSON(diag)
}
