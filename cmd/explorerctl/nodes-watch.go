package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
)

// nodesWatchCmd represents the nodes watch command
var nodesWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Watch a node document and create a node each time it is written",
	Long: `Watch a node document and create a node each time it is written.

The document has the format of "explorerctl nodes create". The session is
opened once and reused for every creation.

Example:
  explorerctl nodes watch /run/gonode/node.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := connect(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch node document: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := watchNodes(ctx, e, args[0], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch node document: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	nodesCmd.AddCommand(nodesWatchCmd)
}

func watchNodes(ctx context.Context, e *explorer.Explorer, filename string, stdout, stderr io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filename); err != nil {
		return fmt.Errorf("failed to watch file %s: %w", filename, err)
	}

	fmt.Fprintf(stdout, "Watching %s for node documents\n", filename)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			fmt.Fprintf(stdout, "[%s] File modified, creating node...\n", time.Now().Format(time.RFC3339))

			payload, err := readPayloadFile(filename)
			if err != nil {
				fmt.Fprintf(stderr, "Error reading node document: %v\n", err)
				continue
			}

			if err := createNode(ctx, e, payload, "text", stdout); err != nil {
				fmt.Fprintf(stderr, "Error creating node: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "Watcher error: %v\n", err)
		case <-ctx.Done():
			fmt.Fprintln(stdout, "\nShutting down...")
			return nil
		}
	}
}
