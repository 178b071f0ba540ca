// Package pipeline orchestrates refresh cycles.
//
// A cycle loads the cached snapshot, fetches every label feed, merges the
// results by release ID, merges download links, enriches releases that are
// new or stale, diffs against the cache and overwrites it only when
// something changed.
//
// Example usage:
//
//	mgr := pipeline.FromSettings(settings, st, client, logger, func(e progress.Event) {
//	    fmt.Println(e.Message)
//	})
//	report, err := mgr.RunCycle(ctx)
//
//	// or poll until ctx is cancelled
//	err = mgr.Watch(ctx, settings.RefreshInterval(), nil)
package pipeline
