package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/gonode-explorer/pkg/explorer"
	"github.com/doodlesbykumbi/gonode-explorer/pkg/model"
)

// nodesCreateCmd represents the nodes create command
var nodesCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create a node from a YAML document",
	Long: `Create a node from a YAML (or JSON) document. Use - to read standard input.

Example document:
  type: core.user
  name: Thomas
  enabled: true
  data:
    login: thomas

Example:
  explorerctl nodes create node.yml
  cat node.yml | explorerctl nodes create -`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		payload, err := readPayloadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create node: %v\n", err)
			os.Exit(1)
		}

		e, err := connect(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create node: %v\n", err)
			os.Exit(1)
		}

		if err := createNode(cmd.Context(), e, payload, output, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create node: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	nodesCmd.AddCommand(nodesCreateCmd)
}

func readPayloadFile(filename string) (model.NodePayload, error) {
	var r io.Reader = os.Stdin
	if filename != "-" {
		file, err := os.Open(filename)
		if err != nil {
			return model.NodePayload{}, fmt.Errorf("failed to open node file: %w", err)
		}
		defer func() { _ = file.Close() }()
		r = file
	}
	return readPayload(r)
}

func readPayload(r io.Reader) (model.NodePayload, error) {
	var payload model.NodePayload
	if err := yaml.NewDecoder(r).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return payload, errors.New("empty node document")
		}
		return payload, fmt.Errorf("failed to parse node document: %w", err)
	}
	if payload.Type == "" || payload.Name == "" {
		return payload, errors.New("node document requires a type and a name")
	}
	return payload, nil
}

func createNode(ctx context.Context, e *explorer.Explorer, payload model.NodePayload, output string, w io.Writer) error {
	node, path, err := e.CreateNode(ctx, payload)
	if err != nil {
		return err
	}

	if output == "json" {
		return writeJSON(w, node)
	}
	fmt.Fprintf(w, "Created %s node %s (%s)\n", node.Type, node.Uuid, path)
	return nil
}
