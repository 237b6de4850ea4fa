package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/ui"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operator console",
	Long: `Run the operator console.

The console talks to the gonode API configured with api_base_url (or
EXPLORER_API_BASE_URL) and listens on listen_address (or
EXPLORER_LISTEN_ADDRESS) unless --listen is given.

Example:
  explorerctl serve
  explorerctl serve --listen 0.0.0.0:2406 --render-wait 500ms`,
	Run: func(cmd *cobra.Command, args []string) {
		listen, _ := cmd.Flags().GetString("listen")
		renderWait, _ := cmd.Flags().GetDuration("render-wait")

		if err := serve(cmd, listen, renderWait); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to serve the console: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "console listen address (defaults to listen_address)")
	serveCmd.Flags().Duration("render-wait", 2*time.Second, "how long a page waits for its data before rendering a loading state")
}

func serve(cmd *cobra.Command, listen string, renderWait time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.ListenAddress
	}

	e, err := newExplorer(cfg, commandLogger(cmd), os.Stderr)
	if err != nil {
		return err
	}

	console, err := ui.NewServer(e, ui.Options{
		RenderWait: renderWait,
		AccessLog:  os.Stdout,
		Logger:     log.Default(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      console,
		Addr:         listen,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.Printf("Running console at http://%s for %s...\n", listen, cfg.APIBaseURL)
	return srv.ListenAndServe()
}
