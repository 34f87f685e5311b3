package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	confirm := &cobra.Command{
		Use:   "confirm [id]",
		Short: "Confirm a memory is still accurate",
		Long:  "Pushes the memory's verification deadline forward per its volatility class.",
		Args:  cobra.ExactArgs(1),
		Run:   runConfirm,
	}

	due := &cobra.Command{
		Use:   "due",
		Short: "List memories overdue for re-confirmation",
		Run:   runDue,
	}
	due.Flags().IntP("limit", "l", 20, "Max memories to list")

	RootCmd.AddCommand(confirm, due)
}

func runConfirm(cmd *cobra.Command, args []string) {
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
	next, err := eng.ConfirmValidity(cmd.Context(), args[0])
	if err != nil {
		exitErr("confirm", err)
	}
	out := map[string]any{"confirmed": true}
	if next != nil {
		out["verify_after"] = next
	}
	printJSON(out)
}

func runDue(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

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
	due, err := eng.VerificationDue(cmd.Context(), limit)
	if err != nil {
		exitErr("due", err)
	}
	printJSON(due)
}
