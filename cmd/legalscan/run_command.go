package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"legalscan/internal/logging"
	"legalscan/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var o overrides
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run [staging-uri] [output-root]",
		Short: "Mirror, unpack, and classify the staging repository",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.staging = args[0]
			}
			if len(args) > 1 {
				o.outputRoot = args[1]
			}
			cfg, err := ctx.loadConfig(cmd, o)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}

			runner := workflow.New(cfg, logger)
			result, err := runner.Run(cmd.Context())
			if err != nil {
				logger.Error("run failed", logging.Error(err))
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

	addOverrideFlags(cmd, &o)
	cmd.Flags().BoolVar(&o.failFast, "fail-fast", false, "Abort on the first archive that cannot be mirrored")
	cmd.Flags().BoolVar(&o.noCatalog, "no-catalog", false, "Skip the SQLite catalog export")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output archive summaries as JSON")
	return cmd
}

func addOverrideFlags(cmd *cobra.Command, o *overrides) {
	cmd.Flags().StringVar(&o.filter, "filter", "", "Regular expression matched against local staging paths")
	cmd.Flags().IntVar(&o.retries, "retries", 0, "Attempts per HTTP request")
}

func printRunTotals(cmd *cobra.Command, result *workflow.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d resources, %d archives, %d mirror failures, %d unpack failures\n",
		result.RunID,
		len(result.Resources),
		len(result.Archives),
		len(result.Mirror.Failures),
		len(result.UnpackFailures),
	)
	if result.CatalogPath != "" {
		fmt.Fprintf(out, "Catalog: %s\n", result.CatalogPath)
	}
}
