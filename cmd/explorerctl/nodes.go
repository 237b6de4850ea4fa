package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
)

// nodesCmd represents the nodes command
var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "Browse and create nodes",
	Long: `Browse and create the nodes of the gonode server.

Every nodes command logs in first, with --username and --password or the
EXPLORER_USERNAME and EXPLORER_PASSWORD environment variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'nodes' requires a subcommand (list, show, revisions, create, watch)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
	nodesCmd.PersistentFlags().StringP("username", "u", "", "gonode username")
	nodesCmd.PersistentFlags().String("password", "", "gonode password")
	nodesCmd.PersistentFlags().StringP("output", "o", "text", "Output format (text or json)")
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printNodes(w io.Writer, nodes []model.NodeSummary) {
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No nodes")
		return
	}

	fmt.Fprintf(w, "%-36s  %-20s  %8s  %-7s  %s\n", "UUID", "TYPE", "REVISION", "ENABLED", "NAME")
	for _, node := range nodes {
		fmt.Fprintf(w, "%-36s  %-20s  %8d  %-7t  %s\n", node.Uuid, node.Type, node.Revision, node.Enabled, node.Name)
	}
}

func printNode(w io.Writer, node *model.NodeDetail) {
	fmt.Fprintf(w, "%-12s %s\n", "UUID:", node.Uuid)
	fmt.Fprintf(w, "%-12s %s\n", "Type:", node.Type)
	fmt.Fprintf(w, "%-12s %s\n", "Name:", node.Name)
	fmt.Fprintf(w, "%-12s %s\n", "Slug:", node.Slug)
	fmt.Fprintf(w, "%-12s %d\n", "Revision:", node.Revision)
	fmt.Fprintf(w, "%-12s %d\n", "Status:", node.Status)
	fmt.Fprintf(w, "%-12s %d\n", "Weight:", node.Weight)
	fmt.Fprintf(w, "%-12s %t\n", "Enabled:", node.Enabled)
	fmt.Fprintf(w, "%-12s %t\n", "Deleted:", node.Deleted)
	fmt.Fprintf(w, "%-12s %s\n", "Created:", node.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%-12s %s\n", "Updated:", node.UpdatedAt.Format("2006-01-02 15:04:05"))
	if len(node.Data) > 0 {
		fmt.Fprintf(w, "%-12s %s\n", "Data:", node.Data)
	}
	if len(node.Meta) > 0 {
		fmt.Fprintf(w, "%-12s %s\n", "Meta:", node.Meta)
	}
}

func printRevisions(w io.Writer, revisions []model.Revision) {
	fmt.Fprintf(w, "%8s  %-19s  %s\n", "REVISION", "UPDATED", "NAME")
	for _, rev := range revisions {
		fmt.Fprintf(w, "%8d  %-19s  %s\n", rev.Number(), rev.UpdatedAt.Format("2006-01-02 15:04:05"), rev.Name)
	}
}
