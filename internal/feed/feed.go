package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/handiism/releasedash/internal/config"
	"github.com/handiism/releasedash/internal/feed/dto"
	"github.com/handiism/releasedash/internal/model"
	"github.com/hashicorp/go-hclog"
)

// ErrNoReleases is returned when every feed failed or returned nothing.
var ErrNoReleases = errors.New("no releases fetched from any feed")

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// FeedError records a feed that could not be fetched during a pass.
type FeedError struct {
	Feed string
	URL  string
	Err  error
}

func (e FeedError) Error() string {
	return fmt.Sprintf("feed %s: %v", e.Feed, e.Err)
}

func (e FeedError) Unwrap() error { return e.Err }

// Batch is the decoded content of one feed.
type Batch struct {
	Feed     string
	Releases []*model.Release
}

// Result is the outcome of fetching all feeds.
type Result struct {
	Batches []Batch
	Failed  []FeedError
}

// Fetcher fetches label feeds one after another with a fixed delay between
// requests.
//
// A failed feed is recorded in Result.Failed and not retried; the remaining
// feeds are still fetched.
//
// Example:
//
//	fetcher := feed.NewFetcher(client, time.Second, logger)
//	res := fetcher.FetchAll(ctx, settings.Feeds)
//	for _, f := range res.Failed {
//	    fmt.Println("failed:", f.Feed, f.Err)
//	}
//	releases := feed.Merge(res.Batches)
type Fetcher struct {
	client JSONGetter
	delay  time.Duration
	logger hclog.Logger
}

// NewFetcher creates a Fetcher. A nil logger disables logging.
func NewFetcher(client JSONGetter, delay time.Duration, logger hclog.Logger) *Fetcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Fetcher{
		client: client,
		delay:  delay,
		logger: logger.Named("feed"),
	}
}

// FetchAll fetches every feed in order. It stops early only when ctx is
// cancelled, in which case the remaining feeds are reported as failed.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []config.Feed) Result {
	var res Result
	for i, fd := range feeds {
		if i > 0 && !f.wait(ctx) {
			for _, rest := range feeds[i:] {
				res.Failed = append(res.Failed, FeedError{Feed: rest.Name, URL: rest.URL, Err: ctx.Err()})
			}
			break
		}

		releases, err := f.Fetch(ctx, fd)
		if err != nil {
			f.logger.Warn("feed fetch failed", "feed", fd.Name, "url", fd.URL, "error", err)
			res.Failed = append(res.Failed, FeedError{Feed: fd.Name, URL: fd.URL, Err: err})
			continue
		}

		f.logger.Debug("feed fetched", "feed", fd.Name, "releases", len(releases))
		res.Batches = append(res.Batches, Batch{Feed: fd.Name, Releases: releases})
	}
	return res
}

// Fetch downloads and decodes a single feed.
func (f *Fetcher) Fetch(ctx context.Context, fd config.Feed) ([]*model.Release, error) {
	var items []dto.JSONRelease
	if err := f.client.GetJSON(ctx, fd.URL, &items); err != nil {
		return nil, err
	}

	releases := make([]*model.Release, 0, len(items))
	for i := range items {
		releases = append(releases, items[i].ToRelease(fd.Name))
	}
	return releases, nil
}

// Total returns the number of releases across all batches.
func (r Result) Total() int {
	n := 0
	for _, b := range r.Batches {
		n += len(b.Releases)
	}
	return n
}

func (f *Fetcher) wait(ctx context.Context) bool {
	if f.delay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(f.delay):
		return true
	}
}
