package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LiboWorks/promptlab/internal/downloader"
)

var (
	pullDir  string
	pullName string
)

var pullCmd = &cobra.Command{
	Use:   "pull <url>",
	Short: "Download a GGUF model for the llama local backend",
	Long: `Pull downloads a model file into the models directory. Set
HUGGINGFACE_TOKEN for gated repositories. Point LLAMA_MODEL_PATH at the
result and set PROMPTLAB_LOCAL_BACKEND=llama to use it.

Examples:
  promptlab pull https://huggingface.co/TheBloke/Llama-2-7B-GGUF/resolve/main/llama-2-7b.Q4_K_M.gguf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("⬇️  Downloading model...")
		path, fetched, err := downloader.New(pullDir).Download(cmd.Context(), args[0], pullName)
		if err != nil {
			return err
		}
		if !fetched {
			fmt.Printf("✅ Already present: %s\n", path)
		} else {
			fmt.Printf("✅ Saved to %s\n", path)
		}
		fmt.Printf("👉 export PROMPTLAB_LOCAL_BACKEND=llama LLAMA_MODEL_PATH=%s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
	pullCmd.Flags().StringVar(&pullDir, "dir", "models", "Directory to save the model in")
	pullCmd.Flags().StringVar(&pullName, "name", "", "File name (default: last element of the URL)")
}
