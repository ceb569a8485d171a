// Package cli implements the ami-rotator command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/elC0mpa/ami-rotator/model"
	"github.com/spf13/cobra"
)

// NewRootCmd returns the root cobra command for the ami-rotator CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &model.Flags{}

	cmd := &cobra.Command{
		Use:   "ami-rotator",
		Short: "Create tagged AMIs of EC2 instances and delete expired ones",
		Long: `ami-rotator backs up every EC2 instance carrying a marker tag (backup or
Backup by default) as a no-reboot AMI tagged with a DeleteAfter date, then
deregisters the AMIs it manages once that date has passed and deletes their
EBS snapshots. Regions are processed one after the other.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.ConfigPath, "config", "c", "", "Path to a YAML config file")
	pf.StringSliceVar(&flags.Regions, "region", nil, "Region to process (repeatable, overrides the config file)")
	pf.StringVar(&flags.Profile, "profile", "", "AWS shared config profile")
	pf.Bool("dry-run", false, "Issue every mutating call with DryRun set")
	pf.Bool("isolate-failures", false, "Record per-instance and per-region failures and keep going")
	pf.StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.LogFormat, "log-format", "", "Log format (text, json)")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI with the process stdio.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
