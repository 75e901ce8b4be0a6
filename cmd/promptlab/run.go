package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LiboWorks/promptlab/internal/template"
	"github.com/LiboWorks/promptlab/pkg/promptlab"
)

var (
	chainName string
	chainVars []string
	plainOut  bool
)

var runCmd = &cobra.Command{
	Use:   "run <chain.yaml>",
	Short: "Run every panel of a chain file",
	Long: `Run loads a chain from a YAML file and runs its panels in order, as
if "run all" was pressed in the web UI. Outputs are memoized in the store
selected by PROMPTLAB_MEMO.

Examples:
  promptlab run chains.yaml
  promptlab run chains.yaml --chain explain --var topic=tides
  promptlab run chains.yaml --plain > out.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, vars, err := loadChain(args[0])
		if err != nil {
			return err
		}

		opts := []promptlab.Option{
			promptlab.WithVars(vars),
			promptlab.WithConfiguredMemo(),
		}
		if verbose {
			opts = append(opts, promptlab.WithVerbose())
		}

		fmt.Println("🔧 Running chain...")
		res, err := promptlab.Run(cmd.Context(), c, opts...)
		if err != nil {
			return err
		}

		p, err := newPrinter(os.Stdout, plainOut)
		if err != nil {
			return err
		}
		for _, r := range res.Panels {
			p.Panel(r, false)
		}

		fmt.Printf("📊 memo %s: %d hits, %d misses, %d model calls, %d failures\n",
			res.Memo, res.Stats.Hits, res.Stats.Misses, res.Stats.BackendCalls, res.Stats.Failures)

		if failed := res.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d panels did not run", len(failed), len(res.Panels))
		}
		fmt.Println("✅ Chain complete")
		return nil
	},
}

// loadChain reads, selects and validates a chain, and parses --var flags.
func loadChain(path string) (*promptlab.Chain, template.Vars, error) {
	vars, err := template.ParsePairs(chainVars)
	if err != nil {
		return nil, nil, err
	}

	c, err := promptlab.LoadChain(path, chainName)
	if err != nil {
		return nil, nil, err
	}
	if err := promptlab.Validate(c); err != nil {
		return nil, nil, fmt.Errorf("invalid chain %s: %w", c.Name, err)
	}

	fmt.Printf("📋 Chain loaded: %s\n", c.Name)
	fmt.Printf("🧩 Panels: %d\n", len(c.Panels))
	return c, vars, nil
}

func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&chainName, "chain", "c", "", "Chain to use when the file holds several (default: the first)")
	cmd.Flags().StringArrayVar(&chainVars, "var", nil, "Override a variable as name=value (repeatable)")
}

func init() {
	rootCmd.AddCommand(runCmd)
	addChainFlags(runCmd)
	runCmd.Flags().BoolVar(&plainOut, "plain", false, "Print outputs without terminal styling")
}
