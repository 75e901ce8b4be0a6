package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/LiboWorks/promptlab/internal/web"
	"github.com/LiboWorks/promptlab/pkg/promptlab"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prompt workbench in a browser",
	Long: `Serve starts the web UI. Each browser session keeps its own panels,
outputs and run history until it has been idle for PROMPTLAB_SESSION_TTL
minutes.

Examples:
  promptlab serve
  promptlab serve --addr 127.0.0.1:9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := serveAddr
		if addr == "" {
			addr = a.cfg.ListenAddr
		}

		if a.cfg.DebugMode {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := web.NewServer(web.Config{
			Invoker:    a.inv,
			Registry:   a.registry,
			Log:        a.log,
			SessionTTL: a.cfg.SessionIdle(),
			Version:    promptlab.Version,
		})

		fmt.Printf("🚀 promptlab listening on %s\n", addr)
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default PROMPTLAB_ADDR or :8501)")
}
