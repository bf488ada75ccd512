package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version, Commit and Date are set at build time using -ldflags.
	Version = "0.0.0-dev"
	Commit  = "none"
	Date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sql-schema-mcp %s (commit %s, built %s)\n", Version, Commit, Date)
		},
	}
}
