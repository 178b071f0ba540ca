package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/handiism/releasedash/internal/audio"
	ioutils "github.com/handiism/releasedash/internal/io"
	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/spf13/cobra"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		filters  filterFlags
		format   string
		previews bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export releases as a link playlist or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "json", "m3u", "pls", "wpl", "zpl":
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			return ctx.withPipeline(cmd.Context(), ctx.printer(cmd.ErrOrStderr()), func(m *pipeline.Manager) error {
				releases, err := m.Load(cmd.Context())
				if err != nil {
					return err
				}
				selected, _, err := filters.selectReleases(releases, time.Now())
				if err != nil {
					return err
				}

				var data []byte
				if format == "json" {
					if selected == nil {
						selected = []*model.Release{}
					}
					var buf bytes.Buffer
					enc := json.NewEncoder(&buf)
					enc.SetIndent("", "  ")
					if err := enc.Encode(selected); err != nil {
						return err
					}
					data = buf.Bytes()
				} else {
					entries := audio.LinkEntries(selected, previews)
					if len(entries) == 0 {
						return fmt.Errorf("no selected release has a %s", linkKind(previews))
					}
					creator := audio.NewPlaylistCreator(audio.ParsePlaylistFormat(format), settings.M3UExtended)
					data = []byte(creator.CreatePlaylist("releasedash", entries))
				}

				if output == "" || output == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := ioutils.WriteFileAtomic(cmd.Context(), output, data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
				return nil
			})
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "m3u", "Output format: m3u, pls, wpl, zpl or json")
	cmd.Flags().BoolVar(&previews, "previews", false, "Use preview links instead of download links")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func linkKind(previews bool) string {
	if previews {
		return "preview link"
	}
	return "download link"
}
