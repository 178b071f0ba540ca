// Package feed fetches and merges label feeds.
//
// Each feed is a JSON array of releases. Feeds are heterogeneous: IDs may be
// numbers or strings, artists and genres may be arrays or single strings.
// The dto subpackage absorbs those differences before conversion to
// model.Release.
//
// # Fetching
//
//	fetcher := feed.NewFetcher(client, settings.FeedDelay(), logger)
//	res := fetcher.FetchAll(ctx, settings.Feeds)
//
// Feeds are fetched sequentially with a fixed delay. Failures are collected
// in res.Failed for display and are not retried within the pass.
//
// # Merging
//
//	releases := feed.Merge(res.Batches)
//
// Releases are merged by ID across feeds. Entries without an ID receive a
// derived one built from artist and title.
//
// # Download Links
//
//	links, err := feed.NewLinksClient(client, settings.LinksURL).Fetch(ctx)
//	added := feed.MergeLinks(releases, links)
package feed
