package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"legalscan/internal/workflow"
)

func newCrawlCommand(ctx *commandContext) *cobra.Command {
	var o overrides
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "crawl [staging-uri]",
		Short: "List the archives the staging repository offers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.staging = args[0]
			}
			cfg, err := ctx.loadConfig(cmd, o)
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}

			resources, err := workflow.New(cfg, logger).Resolve(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				items := make([]resourceJSON, 0, len(resources))
				for _, r := range resources {
					items = append(items, resourceJSON{Path: r.RelPath, Location: r.Location})
				}
				return writeJSON(cmd, items)
			}

			rows := make([][]string, 0, len(resources))
			for _, r := range resources {
				rows = append(rows, []string{r.RelPath, r.Location})
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No archives found")
				return nil
			}
			fmt.Fprintln(out, renderTable(out, []string{"Path", "Location"}, rows, nil))
			return nil
		},
	}

	addOverrideFlags(cmd, &o)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output resources as JSON")
	return cmd
}
