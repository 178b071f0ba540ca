package main

import (
	"fmt"
	"time"

	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/spf13/cobra"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh cycle and update the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd.Context(), ctx.printer(cmd.ErrOrStderr()), func(m *pipeline.Manager) error {
				report, err := m.RunCycle(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, report)
				}
				printReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the cycle report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report *pipeline.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cycle %s finished in %s\n", report.CycleID, report.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "  %s\n", report.Summary())
	if len(report.FailedFeeds) > 0 {
		fmt.Fprintf(out, "  Failed feeds: %v\n", report.FailedFeeds)
	}
	e := report.Enrichment
	fmt.Fprintf(out, "  Lookups: %d found, %d missed, %d failed, %d reused\n", e.Found, e.Missed, e.Failed, e.Reused)
}
