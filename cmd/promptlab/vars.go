package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LiboWorks/promptlab/internal/prompt"
	"github.com/LiboWorks/promptlab/internal/template"
)

var varsCmd = &cobra.Command{
	Use:   "vars <template>",
	Short: "List the placeholders of a template",
	Long: `Vars prints every placeholder name in a template, in order of first
appearance. Names of the form prompt_N refer to the output of panel N.

Examples:
  promptlab vars "Tell me about {topic} in a {tone} way."
  promptlab vars "Summarize: {prompt_1}"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := template.Extract(args[0])
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No placeholders.")
			return nil
		}
		for _, n := range names {
			if pos, ok := prompt.ChainedRef(n); ok {
				fmt.Printf("%s\t(output of panel %d)\n", n, pos)
				continue
			}
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(varsCmd)
}
