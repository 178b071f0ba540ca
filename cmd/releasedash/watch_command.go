package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/spf13/cobra"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = settings.RefreshInterval()
			}

			return ctx.withPipeline(cmd.Context(), ctx.printer(cmd.ErrOrStderr()), func(m *pipeline.Manager) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Refreshing every %s, press Ctrl+C to stop\n", interval)
				err := m.Watch(cmd.Context(), interval, func(report *pipeline.Report, err error) {
					if err != nil && !errors.Is(err, context.Canceled) {
						ctx.log().Error("refresh cycle failed", "error", err)
						return
					}
					if report != nil {
						printReport(cmd, report)
					}
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Refresh interval (defaults to refresh_interval_minutes)")
	return cmd
}
