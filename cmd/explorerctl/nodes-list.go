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

// nodesListCmd represents the nodes list command
var nodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of nodes",
	Long: `List one page of nodes, in server order.

Example:
  explorerctl nodes list
  explorerctl nodes list --per-page 50 --page 2 --output json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		perPage, _ := cmd.Flags().GetInt("per-page")
		page, _ := cmd.Flags().GetInt("page")
		output, _ := cmd.Flags().GetString("output")

		e, err := connect(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list nodes: %v\n", err)
			os.Exit(1)
		}

		if err := listNodes(cmd.Context(), e, api.PageOptions{PerPage: perPage, Page: page}, output, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list nodes: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	nodesCmd.AddCommand(nodesListCmd)
	nodesListCmd.Flags().Int("per-page", 0, "page size (defaults to per_page)")
	nodesListCmd.Flags().Int("page", 0, "page number")
}

func listNodes(ctx context.Context, e *explorer.Explorer, opts api.PageOptions, output string, w io.Writer) error {
	nodes, err := e.Nodes(ctx, opts)
	if err != nil {
		return err
	}

	if output == "json" {
		return writeJSON(w, nodes)
	}
	printNodes(w, nodes)
	return nil
}
