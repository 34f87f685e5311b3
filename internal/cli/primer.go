package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "primer",
		Short: "Print the current system primer",
		Run:   runPrimer,
	}
	cmd.Flags().Bool("regenerate", false, "Force synthesis before printing")

	RootCmd.AddCommand(cmd)
}

func runPrimer(cmd *cobra.Command, args []string) {
	regenerate, _ := cmd.Flags().GetBool("regenerate")

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

	if regenerate {
		m, err := eng.RegeneratePrimer(cmd.Context())
		if err != nil {
			exitErr("regenerate primer", err)
		}
		fmt.Println(m.Content)
		return
	}

	m, err := eng.GetPrimer(cmd.Context())
	if err != nil {
		exitErr("primer", err)
	}
	fmt.Println(m.Content)
}
