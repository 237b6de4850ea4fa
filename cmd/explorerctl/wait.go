package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the gonode API to be ready",
	Long: `Wait for the gonode API to be ready by polling its /hello endpoint.

This command will repeatedly check the API until it responds successfully
or the maximum number of retries is reached.

Example:
  explorerctl wait
  explorerctl wait --retries 60 --interval 500ms`,
	Run: func(cmd *cobra.Command, args []string) {
		retries, _ := cmd.Flags().GetInt("retries")
		interval, _ := cmd.Flags().GetDuration("interval")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to wait for the API: %v\n", err)
			os.Exit(1)
		}

		client := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: 2 * time.Second})
		if err := waitForAPI(cmd.Context(), client, retries, interval, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "API did not become ready: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
	waitCmd.Flags().Duration("interval", time.Second, "Delay between retries")
}

func waitForAPI(ctx context.Context, client *api.Client, retries int, interval time.Duration, w io.Writer) error {
	fmt.Fprintf(w, "Waiting for %s to be ready...\n", client.BaseURL())

	for i := 0; i < retries; i++ {
		if err := client.Ping(ctx); err == nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "gonode is ready!")
			return nil
		}

		fmt.Fprint(w, ".")
		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	fmt.Fprintln(w)
	return fmt.Errorf("gonode is not ready after %d attempts", retries)
}
