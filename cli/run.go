package cli

import (
	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/utils"
	"github.com/spf13/cobra"
)

func newRunCmd(flags *model.Flags) *cobra.Command {
	var noReport bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one backup and expiry cycle over every configured region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(cmd, flags)
			if err != nil {
				return err
			}

			orch, err := newOrchestrator(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			report, runErr := orch.Orchestrate(cmd.Context())
			if report != nil && !noReport {
				utils.DrawReportTable(cmd.OutOrStdout(), report)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&noReport, "no-report", false, "Do not print the summary table")

	return cmd
}
