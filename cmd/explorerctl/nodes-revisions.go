package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/api"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
)

// nodesRevisionsCmd represents the nodes revisions command
var nodesRevisionsCmd = &cobra.Command{
	Use:   "revisions <uuid>",
	Short: "List the revisions of a node",
	Long: `List the revisions of a node, in server order (newest first).

Example:
  explorerctl nodes revisions 3a9c3d36-4b0c-4d22-9a43-8b8a4e5b2f10`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		e, err := connect(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list revisions: %v\n", err)
			os.Exit(1)
		}

		if err := listRevisions(cmd.Context(), e, args[0], output, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list revisions: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	nodesCmd.AddCommand(nodesRevisionsCmd)
}

func listRevisions(ctx context.Context, e *explorer.Explorer, ref, output string, w io.Writer) error {
	id, err := api.ParseNodeUUID(ref)
	if err != nil {
		return err
	}

	revisions, err := e.Revisions(ctx, id)
	if err != nil {
		return err
	}

	if output == "json" {
		return writeJSON(w, revisions)
	}
	printRevisions(w, revisions)
	return nil
}
