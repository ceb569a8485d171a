package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo records the build metadata printed by the version command.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ami-rotator %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
}
