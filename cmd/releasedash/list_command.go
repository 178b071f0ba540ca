package main

import (
	"fmt"
	"time"

	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/handiism/releasedash/internal/view"
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		filters       filterFlags
		refresh       bool
		jsonOutput    bool
		absoluteDates bool
		noColor       bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show cached releases as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(cmd.Context(), ctx.printer(cmd.ErrOrStderr()), func(m *pipeline.Manager) error {
				releases, err := loadOrRefresh(cmd, m, refresh)
				if err != nil {
					return err
				}

				now := time.Now()
				selected, sortState, err := filters.selectReleases(releases, now)
				if err != nil {
					return err
				}

				if jsonOutput {
					if selected == nil {
						selected = []*model.Release{}
					}
					return writeJSON(cmd, selected)
				}

				out := cmd.OutOrStdout()
				if len(selected) == 0 {
					fmt.Fprintln(out, "No releases match.")
					return nil
				}
				fmt.Fprintln(out, view.RenderTable(selected, now, view.TableOptions{
					Color:         !noColor && isTerminalWriter(out),
					AbsoluteDates: absoluteDates,
					Sort:          sortState,
				}))
				fmt.Fprintf(out, "%d of %d releases\n", len(selected), len(releases))
				return nil
			})
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Run a refresh cycle before listing")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print releases as JSON")
	cmd.Flags().BoolVar(&absoluteDates, "absolute-dates", false, "Show dates as YYYY-MM-DD")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

// loadOrRefresh returns the cached snapshot, running a cycle first when
// refresh is set.
func loadOrRefresh(cmd *cobra.Command, m *pipeline.Manager, refresh bool) ([]*model.Release, error) {
	if !refresh {
		return m.Load(cmd.Context())
	}
	if _, err := m.RunCycle(cmd.Context()); err != nil {
		return nil, err
	}
	return m.Snapshot(), nil
}
