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

// nodesShowCmd represents the nodes show command
var nodesShowCmd = &cobra.Command{
	Use:   "show <uuid>",
	Short: "Show a node",
	Long: `Show the current document of a node.

Example:
  explorerctl nodes show 3a9c3d36-4b0c-4d22-9a43-8b8a4e5b2f10`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		e, err := connect(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show node: %v\n", err)
			os.Exit(1)
		}

		if err := showNode(cmd.Context(), e, args[0], output, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show node: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	nodesCmd.AddCommand(nodesShowCmd)
}

func showNode(ctx context.Context, e *explorer.Explorer, ref, output string, w io.Writer) error {
	id, err := api.ParseNodeUUID(ref)
	if err != nil {
		return err
	}

	node, err := e.Node(ctx, id)
	if err != nil {
		return err
	}

	if output == "json" {
		return writeJSON(w, node)
	}
	printNode(w, node)
	return nil
}
