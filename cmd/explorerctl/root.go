package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "explorerctl",
	Short: "Operator console for a gonode server",
	Long: `Browse, inspect and create the nodes of a gonode server, from a browser
with "explorerctl serve" or from the command line.`,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log cache and session activity to stderr")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
