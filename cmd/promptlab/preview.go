package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LiboWorks/promptlab/pkg/promptlab"
)

var previewCmd = &cobra.Command{
	Use:   "preview <chain.yaml>",
	Short: "Show the compiled prompts of a chain without calling a model",
	Long: `Preview compiles every panel of a chain and prints the resulting
prompts, or what is missing. Panels that use an earlier panel's output show
as blocked, since nothing has run yet.

Examples:
  promptlab preview chains.yaml
  promptlab preview chains.yaml --chain explain --var topic=tides`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, vars, err := loadChain(args[0])
		if err != nil {
			return err
		}

		results, err := promptlab.Preview(c, promptlab.WithVars(vars))
		if err != nil {
			return err
		}

		p, err := newPrinter(os.Stdout, plainOut)
		if err != nil {
			return err
		}
		for _, r := range results {
			p.Panel(r, true)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	addChainFlags(previewCmd)
	previewCmd.Flags().BoolVar(&plainOut, "plain", false, "Print without terminal styling")
}
