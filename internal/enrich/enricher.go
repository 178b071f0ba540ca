package enrich

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/tunebat"
	"github.com/hashicorp/go-hclog"
)

// Stats summarizes one enrichment pass.
type Stats struct {
	Reused int `json:"reused"`
	Looked int `json:"looked"`
	Found  int `json:"found"`
	Missed int `json:"missed"`
	Failed int `json:"failed"`
}

// Options configures an Enricher. Zero values fall back to the defaults
// noted on each field.
type Options struct {
	// Delay separates consecutive lookups.
	Delay time.Duration

	// MaxRetries is how many times a rate-limited lookup is retried after
	// the first attempt. Default 5.
	MaxRetries int

	// Cooldown is the first wait after a rate-limited attempt. Default 1s.
	Cooldown time.Duration

	// Exponent grows the wait between attempts. Default 2.
	Exponent float64

	// MissRetryAfter is how long a miss is trusted before looking the
	// release up again. Zero retries misses on every pass.
	MissRetryAfter time.Duration
}

// Enricher fills tempo, key and popularity on releases, one lookup at a
// time.
//
// Enrichment already present in the previous snapshot is reused by
// release ID, so only new or stale releases hit the lookup service.
// Lookup failures never abort the pass: the release keeps its placeholder
// values and is counted in Stats.Failed.
//
// Example:
//
//	e := enrich.New(tunebat.NewClient(client, searchURL, proxyURL), enrich.Options{
//	    Delay:      500 * time.Millisecond,
//	    MaxRetries: 5,
//	}, logger)
//	stats := e.Enrich(ctx, releases, previous)
type Enricher struct {
	searcher tunebat.Searcher
	opts     Options
	logger   hclog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Enricher. A nil logger disables logging.
func New(searcher tunebat.Searcher, opts Options, logger hclog.Logger) *Enricher {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 5
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Second
	}
	if opts.Exponent < 1 {
		opts.Exponent = 2
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Enricher{
		searcher: searcher,
		opts:     opts,
		logger:   logger.Named("enrich"),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Enrich updates releases in place. previous is the last persisted
// snapshot and may be nil. A cancelled ctx ends the pass early; releases
// not yet visited keep whatever enrichment they had.
func (e *Enricher) Enrich(ctx context.Context, releases []*model.Release, previous []*model.Release) Stats {
	var stats Stats

	cached := make(map[string]*model.Release, len(previous))
	for _, r := range previous {
		cached[r.ID] = r
	}

	first := true
	for _, r := range releases {
		if ctx.Err() != nil {
			break
		}

		if r.CopyEnrichment(cached[r.ID]) && r.HasEnrichment() {
			stats.Reused++
			continue
		}
		if !r.NeedsLookup(e.now(), e.opts.MissRetryAfter) {
			stats.Reused++
			continue
		}
		if r.QueryString() == "" {
			stats.Failed++
			continue
		}

		if !first {
			if err := e.sleep(ctx, e.opts.Delay); err != nil {
				break
			}
		}
		first = false

		stats.Looked++
		track, err := e.lookup(ctx, r.QueryString())
		switch {
		case err != nil:
			stats.Failed++
			e.logger.Warn("lookup failed", "id", r.ID, "query", r.QueryString(), "error", err)
		case track == nil:
			stats.Missed++
			r.ApplyEnrichment(nil, e.now())
			e.logger.Debug("no match", "id", r.ID, "query", r.QueryString())
		default:
			stats.Found++
			r.ApplyEnrichment(track.Enrichment(), e.now())
		}
	}

	e.logger.Info("enrichment pass done",
		"reused", stats.Reused, "looked", stats.Looked,
		"found", stats.Found, "missed", stats.Missed, "failed", stats.Failed)
	return stats
}

// lookup searches once and retries only rate-limited attempts, up to
// MaxRetries times, waiting cooldown * exponent^tries between them.
func (e *Enricher) lookup(ctx context.Context, query string) (*tunebat.Track, error) {
	var err error
	for tries := 0; tries <= e.opts.MaxRetries; tries++ {
		var track *tunebat.Track
		track, err = e.searcher.Search(ctx, query)
		if err == nil {
			return track, nil
		}
		if !errors.Is(err, tunebat.ErrRateLimited) {
			return nil, err
		}
		if tries == e.opts.MaxRetries {
			break
		}

		wait := e.backoff(tries)
		e.logger.Debug("rate limited, backing off", "query", query, "attempt", tries+1, "wait", wait)
		if serr := e.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
	return nil, err
}

func (e *Enricher) backoff(tries int) time.Duration {
	return time.Duration(float64(e.opts.Cooldown) * math.Pow(e.opts.Exponent, float64(tries)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
