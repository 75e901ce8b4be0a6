package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/LiboWorks/promptlab/pkg/promptlab"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the promptlab version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("promptlab %s (%s)\n", promptlab.Version, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
