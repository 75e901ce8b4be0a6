package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/LiboWorks/promptlab/internal/config"
)

var (
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "promptlab",
	Short: "Build, chain and run LLM prompts from a browser or the terminal",
	Long: `promptlab is a workbench for system/user prompt pairs.

Features:
  - Fill {name} placeholders from a variable table
  - Chain panels: panel N's output is {prompt_N} in later panels
  - Switch each panel between a hosted (paid) and a local (free) model
  - Identical prompts are answered from a memo instead of the model

Examples:
  promptlab serve --addr :8501
  promptlab run chains.yaml --var topic=tides
  promptlab preview chains.yaml --chain explain
  promptlab vars "Tell me about {topic}."`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		config.Reset()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File of KEY=value lines loaded into the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log model calls and requests to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
