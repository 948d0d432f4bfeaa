// Package main is the entry point for the webrpg engine server and tools.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "webrpg",
		Short:        "Character sheet and dice engine for tabletop RPGs",
		SilenceUsage: true,
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("webrpg version {{.Version}}\n")

	root.AddCommand(
		newServeCmd(),
		newEvalCmd(),
		newSheetCmd(),
		newRollCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
