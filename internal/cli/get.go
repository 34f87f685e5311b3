package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	get := &cobra.Command{
		Use:   "get [id]",
		Short: "Fetch one memory with its related links",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	doc := &cobra.Command{
		Use:   "doc [id]",
		Short: "Reconstruct the document containing a memory",
		Long:  "Walks the section chain around the given memory and prints every active section in order.",
		Args:  cobra.ExactArgs(1),
		Run:   runDoc,
	}

	history := &cobra.Command{
		Use:   "history [id]",
		Short: "Trace a memory's version chain, oldest first",
		Args:  cobra.ExactArgs(1),
		Run:   runHistory,
	}

	RootCmd.AddCommand(get, doc, history)
}

func runGet(cmd *cobra.Command, args []string) {
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
	m, related, err := eng.GetMemory(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	printJSON(map[string]any{"memory": m, "related": related})
}

func runDoc(cmd *cobra.Command, args []string) {
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
	sections, err := eng.FetchDocument(cmd.Context(), args[0])
	if err != nil {
		exitErr("doc", err)
	}
	printJSON(sections)
}

func runHistory(cmd *cobra.Command, args []string) {
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
	versions, err := eng.TraceHistory(cmd.Context(), args[0])
	if err != nil {
		exitErr("history", err)
	}
	printJSON(versions)
}
