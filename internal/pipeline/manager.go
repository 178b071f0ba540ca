package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/handiism/releasedash/internal/config"
	"github.com/handiism/releasedash/internal/enrich"
	"github.com/handiism/releasedash/internal/feed"
	"github.com/handiism/releasedash/internal/http"
	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/progress"
	"github.com/handiism/releasedash/internal/snapshot"
	"github.com/handiism/releasedash/internal/store"
	"github.com/handiism/releasedash/internal/tunebat"
	"github.com/hashicorp/go-hclog"
)

// ErrCycleRunning is returned by RunCycle when another cycle is in flight.
var ErrCycleRunning = errors.New("a refresh cycle is already running")

// FeedFetcher fetches all label feeds.
type FeedFetcher interface {
	FetchAll(ctx context.Context, feeds []config.Feed) feed.Result
}

// LinksFetcher fetches download links keyed by release ID.
type LinksFetcher interface {
	Fetch(ctx context.Context) (map[string][]string, error)
}

// Enricher attaches lookup results to releases.
type Enricher interface {
	Enrich(ctx context.Context, releases, previous []*model.Release) enrich.Stats
}

// Deps are the collaborators of a Manager.
type Deps struct {
	Fetcher  FeedFetcher
	Links    LinksFetcher
	Enricher Enricher
	Store    store.Store
}

// Report describes one refresh cycle.
type Report struct {
	CycleID     string           `json:"cycle_id"`
	Started     time.Time        `json:"started"`
	Finished    time.Time        `json:"finished"`
	Feeds       int              `json:"feeds"`
	FailedFeeds []string         `json:"failed_feeds"`
	Fetched     int              `json:"fetched"`
	CarriedOver int              `json:"carried_over"`
	Releases    int              `json:"releases"`
	LinksAdded  int              `json:"links_added"`
	Enrichment  enrich.Stats     `json:"enrichment"`
	Changes     snapshot.Changes `json:"changes"`
	Persisted   bool             `json:"persisted"`
}

// Duration returns how long the cycle ran.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Summary returns a one-line human description of the cycle.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d releases (%d new, %d changed, %d removed), %d lookups, %d/%d feeds ok",
		r.Releases, len(r.Changes.Added), len(r.Changes.Changed), len(r.Changes.Removed),
		r.Enrichment.Looked, r.Feeds-len(r.FailedFeeds), r.Feeds)
	if !r.Persisted {
		s += ", cache unchanged"
	}
	return s
}

// Manager runs refresh cycles: load the cache, fetch and merge feeds, merge
// download links, enrich, diff against the cache and save when something
// changed.
//
// Cycles never overlap. Feed and lookup failures are recorded in the Report;
// only cache failures are returned as errors.
type Manager struct {
	feeds      []config.Feed
	deps       Deps
	logger     hclog.Logger
	onProgress progress.Func

	cycleMu sync.Mutex

	mu      sync.RWMutex
	current []*model.Release
	loaded  bool
	lastRun *Report
}

// NewManager creates a Manager from explicit collaborators. A nil logger
// disables logging and a nil onProgress drops progress events.
func NewManager(feeds []config.Feed, deps Deps, logger hclog.Logger, onProgress progress.Func) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{
		feeds:      feeds,
		deps:       deps,
		logger:     logger.Named("pipeline"),
		onProgress: onProgress,
	}
}

// FromSettings wires a Manager with the HTTP-backed feed, links and lookup
// clients described by settings.
func FromSettings(settings *config.Settings, st store.Store, client *http.Client, logger hclog.Logger, onProgress progress.Func) *Manager {
	if client == nil {
		client = http.NewClient()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	searcher := tunebat.NewClient(client, settings.SearchURL, settings.ProxyURL)
	enricher := enrich.New(searcher, enrich.Options{
		Delay:          settings.LookupDelay(),
		MaxRetries:     settings.LookupMaxRetries,
		Cooldown:       settings.LookupCooldown(),
		Exponent:       settings.LookupRetryExponent,
		MissRetryAfter: settings.MissRetryAfter(),
	}, logger)

	deps := Deps{
		Fetcher:  feed.NewFetcher(client, settings.FeedDelay(), logger),
		Links:    feed.NewLinksClient(client, settings.LinksURL),
		Enricher: enricher,
		Store:    st,
	}
	return NewManager(settings.Feeds, deps, logger, onProgress)
}

// Snapshot returns a copy of the last loaded or saved releases.
func (m *Manager) Snapshot() []*model.Release {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Release, len(m.current))
	for i, r := range m.current {
		out[i] = r.Clone()
	}
	return out
}

// LastReport returns the report of the last finished cycle, or nil.
func (m *Manager) LastReport() *Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}

// Load reads the cache into the manager's snapshot once. Later calls are
// no-ops.
func (m *Manager) Load(ctx context.Context) ([]*model.Release, error) {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if loaded {
		return m.Snapshot(), nil
	}

	releases, err := m.deps.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	m.setCurrent(releases)
	m.onProgress.Send(fmt.Sprintf("Loaded %d cached releases", len(releases)), progress.LevelVerbose)
	return m.Snapshot(), nil
}

// RunCycle performs one refresh cycle.
func (m *Manager) RunCycle(ctx context.Context) (*Report, error) {
	if !m.cycleMu.TryLock() {
		return nil, ErrCycleRunning
	}
	defer m.cycleMu.Unlock()

	report := &Report{
		CycleID: uuid.NewString(),
		Started: time.Now(),
		Feeds:   len(m.feeds),
	}
	logger := m.logger.With("cycle", report.CycleID)
	logger.Info("refresh cycle started", "feeds", len(m.feeds))

	previous, err := m.Load(ctx)
	if err != nil {
		m.onProgress.Send(err.Error(), progress.LevelError)
		return nil, err
	}

	// Fetch
	m.onProgress.Send(fmt.Sprintf("Fetching %d feeds", len(m.feeds)), progress.LevelInfo)
	res := m.deps.Fetcher.FetchAll(ctx, m.feeds)
	for _, f := range res.Failed {
		report.FailedFeeds = append(report.FailedFeeds, f.Feed)
		m.onProgress.Send(fmt.Sprintf("Feed %s failed: %v", f.Feed, f.Err), progress.LevelWarning)
	}
	report.Fetched = res.Total()

	if report.Fetched == 0 {
		report.Releases = len(previous)
		report.Finished = time.Now()
		m.finish(report)
		m.onProgress.Send(feed.ErrNoReleases.Error() + ", keeping cache", progress.LevelError)
		logger.Warn("no releases fetched, cache kept", "failed_feeds", len(res.Failed))
		return report, nil
	}

	releases := feed.Merge(res.Batches)
	releases, report.CarriedOver = carryOver(releases, previous, report.FailedFeeds)

	// Links
	if m.deps.Links != nil {
		links, err := m.deps.Links.Fetch(ctx)
		if err != nil {
			m.onProgress.Send(fmt.Sprintf("Download links failed: %v", err), progress.LevelWarning)
			logger.Warn("download links fetch failed", "error", err)
		} else {
			report.LinksAdded = feed.MergeLinks(releases, links)
		}
	}
	// links already known from the cache survive a links endpoint outage
	prevIdx := snapshot.Index(previous)
	for _, r := range releases {
		if p, ok := prevIdx[r.ID]; ok {
			r.AddDownloadLinks(p.DownloadLinks...)
		}
	}

	// Enrich
	m.onProgress.Send(fmt.Sprintf("Enriching %d releases", len(releases)), progress.LevelInfo)
	report.Enrichment = m.deps.Enricher.Enrich(ctx, releases, previous)
	report.Releases = len(releases)

	if err := ctx.Err(); err != nil {
		report.Finished = time.Now()
		m.finish(report)
		logger.Info("refresh cycle cancelled")
		return report, err
	}

	// Diff and persist
	report.Changes = snapshot.Diff(previous, releases)
	if report.Changes.Empty() {
		m.onProgress.Send("No changes since last refresh", progress.LevelVerbose)
	} else {
		if err := m.deps.Store.Save(ctx, releases); err != nil {
			report.Finished = time.Now()
			m.finish(report)
			m.onProgress.Send(fmt.Sprintf("Saving cache failed: %v", err), progress.LevelError)
			return report, fmt.Errorf("save cache: %w", err)
		}
		report.Persisted = true
	}
	m.setCurrent(releases)

	report.Finished = time.Now()
	m.finish(report)
	m.onProgress.Send("Refresh done: " + report.Summary(), progress.LevelSuccess)
	logger.Info("refresh cycle finished",
		"releases", report.Releases,
		"added", len(report.Changes.Added),
		"changed", len(report.Changes.Changed),
		"removed", len(report.Changes.Removed),
		"persisted", report.Persisted,
		"duration", report.Duration())
	return report, nil
}

// Watch runs a cycle immediately and then once per interval until ctx is
// cancelled. Ticks that arrive while a cycle is running are dropped.
// onReport, when set, receives every cycle's outcome.
func (m *Manager) Watch(ctx context.Context, interval time.Duration, onReport func(*Report, error)) error {
	if interval <= 0 {
		return fmt.Errorf("invalid refresh interval %s", interval)
	}

	run := func() {
		report, err := m.RunCycle(ctx)
		if err != nil && ctx.Err() == nil {
			m.logger.Error("refresh cycle failed", "error", err)
		}
		if onReport != nil {
			onReport(report, err)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			run()
			// drop a tick that queued up during the cycle
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

func (m *Manager) setCurrent(releases []*model.Release) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = releases
	m.loaded = true
}

func (m *Manager) finish(report *Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRun = report
}

// carryOver keeps cached releases that came only from feeds that failed
// this cycle, so an outage does not wipe them from the cache.
func carryOver(releases, previous []*model.Release, failedFeeds []string) ([]*model.Release, int) {
	if len(failedFeeds) == 0 {
		return releases, 0
	}
	seen := snapshot.Index(releases)
	carried := 0
	for _, p := range previous {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		if slices.ContainsFunc(p.Sources, func(s string) bool { return slices.Contains(failedFeeds, s) }) {
			releases = append(releases, p.Clone())
			carried++
		}
	}
	return releases, carried
}
