package main

import (
	"fmt"
	"time"

	"github.com/handiism/releasedash/internal/download"
	apphttp "github.com/handiism/releasedash/internal/http"
	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/spf13/cobra"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		filters  filterFlags
		refresh  bool
		output   string
		playlist string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download releases that have a download link",
		Long: "Download the first download link of each selected release into the\n" +
			"library, tag it with tempo, key and label, and write a playlist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if output != "" {
				settings.DownloadsPath = output
			}
			if cmd.Flags().Changed("playlist") {
				settings.PlaylistFormat = playlist
			}

			printer := ctx.printer(cmd.ErrOrStderr())
			return ctx.withPipeline(cmd.Context(), printer, func(m *pipeline.Manager) error {
				releases, err := loadOrRefresh(cmd, m, refresh)
				if err != nil {
					return err
				}
				selected, _, err := filters.selectReleases(releases, time.Now())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if dryRun {
					cfg := settings.ToPathConfig()
					for _, r := range selected {
						if len(r.DownloadLinks) > 0 {
							fmt.Fprintf(out, "%s\n  <- %s\n", r.FilePath(cfg), r.DownloadLinks[0])
						}
					}
					return nil
				}

				dl := download.NewManager(settings, apphttp.NewClient(), printer)
				res, err := dl.Download(cmd.Context(), selected)
				received, _ := dl.Progress()
				fmt.Fprintf(out, "Downloaded %d, skipped %d, failed %d (%.2f MB)\n",
					res.Downloaded, res.Skipped, res.Failed, float64(received)/1024/1024)
				for _, p := range res.Playlists {
					fmt.Fprintf(out, "Playlist: %s\n", p)
				}
				if err != nil {
					return err
				}
				if res.Failed > 0 {
					return fmt.Errorf("%d downloads failed", res.Failed)
				}
				return nil
			})
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Run a refresh cycle before downloading")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Downloads folder template (overrides downloads_path)")
	cmd.Flags().StringVar(&playlist, "playlist", "", "Playlist format: m3u, pls, wpl, zpl or empty for none")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print target paths without downloading")
	return cmd
}
