package main

import (
	"github.com/spf13/cobra"

	"legalscan/internal/logging"
	"legalscan/internal/workflow"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var o overrides
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [output-root]",
		Short: "Unpack and classify archives already mirrored under repo/",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.outputRoot = args[0]
			}
			o.scan = true
			cfg, err := ctx.loadConfig(cmd, o)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}

			result, err := workflow.New(cfg, logger).Scan(cmd.Context())
			if err != nil {
				logger.Error("scan failed", logging.Error(err))
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, newRunReport(result))
			}
			printArchives(cmd, result.Archives)
			printRunTotals(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&o.noCatalog, "no-catalog", false, "Skip the SQLite catalog export")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output archive summaries as JSON")
	return cmd
}
