package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	categories := &cobra.Command{
		Use:   "categories [path]",
		Short: "List active category paths with counts",
		Args:  cobra.MaximumNArgs(1),
		Run:   runCategories,
	}
	categories.Flags().Bool("tree", false, "Render as an indented tree")

	rename := &cobra.Command{
		Use:   "rename [old-path] [new-path]",
		Short: "Atomically move a taxonomy subtree",
		Args:  cobra.ExactArgs(2),
		Run:   runRename,
	}

	RootCmd.AddCommand(categories, rename)
}

func runCategories(cmd *cobra.Command, args []string) {
	tree, _ := cmd.Flags().GetBool("tree")
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

	if tree {
		rendered, err := eng.ExploreTaxonomy(cmd.Context(), prefix)
		if err != nil {
			exitErr("categories", err)
		}
		fmt.Println(rendered)
		return
	}

	counts, err := eng.ListCategories(cmd.Context(), prefix)
	if err != nil {
		exitErr("categories", err)
	}
	printJSON(counts)
}

func runRename(cmd *cobra.Command, args []string) {
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
	moved, err := eng.RenameCategory(cmd.Context(), args[0], args[1])
	if err != nil {
		exitErr("rename", err)
	}
	printJSON(map[string]any{"moved": moved})
}
