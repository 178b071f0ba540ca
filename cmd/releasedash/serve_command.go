package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/handiism/releasedash/internal/server"
	"github.com/handiism/releasedash/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		addr     string
		blobPath string
		noWatch  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve releases and the JSON blob cache over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = settings.ListenAddr
			}
			if blobPath == "" {
				blobPath = filepath.Join(filepath.Dir(settings.CachePath), "blob.db")
			}

			kv, err := store.OpenSQLite(cmd.Context(), blobPath, settings.CacheKey)
			if err != nil {
				return err
			}
			defer kv.Close()

			logger := ctx.log()
			return ctx.withPipeline(cmd.Context(), nil, func(m *pipeline.Manager) error {
				if _, err := m.Load(cmd.Context()); err != nil {
					logger.Warn("cache unavailable, serving an empty snapshot", "error", err)
				}

				g, gctx := errgroup.WithContext(cmd.Context())
				g.Go(func() error {
					return server.New(m, kv, logger).Run(gctx, addr)
				})
				if !noWatch {
					g.Go(func() error {
						return m.Watch(gctx, settings.RefreshInterval(), func(report *pipeline.Report, err error) {
							if err != nil && !errors.Is(err, context.Canceled) {
								logger.Error("refresh cycle failed", "error", err)
								return
							}
							if report != nil {
								logger.Info("refresh cycle finished", "cycle", report.CycleID, "summary", report.Summary())
							}
						})
					})
				}

				if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (defaults to listen_addr)")
	cmd.Flags().StringVar(&blobPath, "blob-db", "", "SQLite database backing /blob (defaults next to the cache)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Serve the cache without refreshing it")
	return cmd
}
