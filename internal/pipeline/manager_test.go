package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/handiism/releasedash/internal/config"
	"github.com/handiism/releasedash/internal/enrich"
	"github.com/handiism/releasedash/internal/feed"
	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/progress"
	"github.com/handiism/releasedash/internal/tunebat"
)

type fakeFetcher struct {
	result func() feed.Result
	calls  atomic.Int32
	block  chan struct{}
}

func (f *fakeFetcher) FetchAll(ctx context.Context, feeds []config.Feed) feed.Result {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	return f.result()
}

type fakeLinks struct {
	links map[string][]string
	err   error
}

func (f *fakeLinks) Fetch(context.Context) (map[string][]string, error) { return f.links, f.err }

// keyEnricher sets a fixed key on every release that has none.
type keyEnricher struct{ calls int }

func (e *keyEnricher) Enrich(ctx context.Context, releases, previous []*model.Release) enrich.Stats {
	e.calls++
	var s enrich.Stats
	for _, r := range releases {
		if r.Key == "" {
			r.Key = "A min"
			s.Looked++
			s.Found++
		}
	}
	return s
}

type memStore struct {
	mu       sync.Mutex
	releases []*model.Release
	saves    int
	loadErr  error
	saveErr  error
}

func (s *memStore) Load(context.Context) ([]*model.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Release, len(s.releases))
	for i, r := range s.releases {
		out[i] = r.Clone()
	}
	return out, s.loadErr
}

func (s *memStore) Save(_ context.Context, releases []*model.Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.releases = releases
	return nil
}

var testFeeds = []config.Feed{{Name: "techno", URL: "http://x/techno"}, {Name: "house", URL: "http://x/house"}}

func batches() feed.Result {
	return feed.Result{Batches: []feed.Batch{
		{Feed: "techno", Releases: []*model.Release{{ID: "1", Title: "Nightfall", Artists: []string{"Kora"}, Sources: []string{"techno"}}}},
		{Feed: "house", Releases: []*model.Release{{ID: "2", Title: "Undertow", Artists: []string{"Vex"}, Sources: []string{"house"}}}},
	}}
}

func TestManager_RunCycle(t *testing.T) {
	st := &memStore{}
	enricher := &keyEnricher{}
	var events []progress.Event
	m := NewManager(testFeeds, Deps{
		Fetcher:  &fakeFetcher{result: batches},
		Links:    &fakeLinks{links: map[string][]string{"1": {"https://dl/1.mp3"}}},
		Enricher: enricher,
		Store:    st,
	}, nil, func(e progress.Event) { events = append(events, e) })

	report, err := m.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if report.CycleID == "" {
		t.Error("cycle id should be set")
	}
	if report.Releases != 2 || len(report.Changes.Added) != 2 || !report.Persisted {
		t.Errorf("first report = %+v", report)
	}
	if report.LinksAdded != 1 {
		t.Errorf("LinksAdded = %d, want 1", report.LinksAdded)
	}
	if st.saves != 1 {
		t.Errorf("saves = %d, want 1", st.saves)
	}
	if events[len(events)-1].Level != progress.LevelSuccess {
		t.Errorf("last event = %+v, want success", events[len(events)-1])
	}

	// an identical second cycle must not write the cache
	report, err = m.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second RunCycle: %v", err)
	}
	if report.Persisted || !report.Changes.Empty() {
		t.Errorf("second report = %+v, want no changes", report)
	}
	if st.saves != 1 {
		t.Errorf("saves = %d, want still 1", st.saves)
	}

	snap := m.Snapshot()
	if len(snap) != 2 || snap[0].KeyString() != "A min" {
		t.Errorf("snapshot = %+v", snap)
	}
	snap[0].Title = "mutated"
	if m.Snapshot()[0].Title == "mutated" {
		t.Error("Snapshot should return copies")
	}
}

func TestManager_FeedFailureCarriesOverCache(t *testing.T) {
	st := &memStore{releases: []*model.Release{
		{ID: "1", Title: "Nightfall", Sources: []string{"techno"}, Key: "A min"},
		{ID: "2", Title: "Undertow", Sources: []string{"house"}, Key: "C maj"},
	}}
	fetcher := &fakeFetcher{result: func() feed.Result {
		res := batches()
		res.Batches = res.Batches[:1]
		res.Failed = []feed.FeedError{{Feed: "house", Err: errors.New("502")}}
		return res
	}}

	m := NewManager(testFeeds, Deps{Fetcher: fetcher, Enricher: &keyEnricher{}, Store: st}, nil, nil)
	report, err := m.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.FailedFeeds) != 1 || report.FailedFeeds[0] != "house" {
		t.Errorf("FailedFeeds = %v", report.FailedFeeds)
	}
	if report.CarriedOver != 1 || report.Releases != 2 {
		t.Errorf("report = %+v, want release 2 carried over", report)
	}
	if len(report.Changes.Removed) != 0 {
		t.Errorf("Removed = %v, want none", report.Changes.Removed)
	}
}

func TestManager_AllFeedsFailedKeepsCache(t *testing.T) {
	st := &memStore{releases: []*model.Release{{ID: "1", Key: "A min"}}}
	fetcher := &fakeFetcher{result: func() feed.Result {
		return feed.Result{Failed: []feed.FeedError{{Feed: "techno", Err: errors.New("down")}, {Feed: "house", Err: errors.New("down")}}}
	}}
	enricher := &keyEnricher{}

	m := NewManager(testFeeds, Deps{Fetcher: fetcher, Enricher: enricher, Store: st}, nil, nil)
	report, err := m.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Persisted || st.saves != 0 || enricher.calls != 0 {
		t.Errorf("nothing should be enriched or saved: %+v", report)
	}
	if len(m.Snapshot()) != 1 {
		t.Error("cached snapshot should be kept")
	}
}

func TestManager_LinksFailureIsRecorded(t *testing.T) {
	st := &memStore{releases: []*model.Release{{ID: "1", DownloadLinks: []string{"https://dl/old.mp3"}}}}
	m := NewManager(testFeeds, Deps{
		Fetcher:  &fakeFetcher{result: batches},
		Links:    &fakeLinks{err: errors.New("timeout")},
		Enricher: &keyEnricher{},
		Store:    st,
	}, nil, nil)

	if _, err := m.RunCycle(context.Background()); err != nil {
		t.Fatalf("links failure should not fail the cycle: %v", err)
	}
	snap := m.Snapshot()
	for _, r := range snap {
		if r.ID == "1" && len(r.DownloadLinks) != 1 {
			t.Errorf("cached links should survive: %v", r.DownloadLinks)
		}
	}
}

func TestManager_StoreErrors(t *testing.T) {
	boom := errors.New("disk full")

	m := NewManager(testFeeds, Deps{Fetcher: &fakeFetcher{result: batches}, Enricher: &keyEnricher{}, Store: &memStore{loadErr: boom}}, nil, nil)
	if _, err := m.RunCycle(context.Background()); !errors.Is(err, boom) {
		t.Errorf("load err = %v, want %v", err, boom)
	}

	m = NewManager(testFeeds, Deps{Fetcher: &fakeFetcher{result: batches}, Enricher: &keyEnricher{}, Store: &memStore{saveErr: boom}}, nil, nil)
	report, err := m.RunCycle(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("save err = %v, want %v", err, boom)
	}
	if report == nil || report.Persisted {
		t.Errorf("report = %+v, want unpersisted report", report)
	}
	if m.LastReport() != report {
		t.Error("LastReport should return the failed cycle's report")
	}
}

// cancelEnricher cancels the cycle while enriching.
type cancelEnricher struct{ cancel context.CancelFunc }

func (e *cancelEnricher) Enrich(context.Context, []*model.Release, []*model.Release) enrich.Stats {
	e.cancel()
	return enrich.Stats{}
}

func TestManager_CancelledCycleIsRecorded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := &memStore{}
	m := NewManager(testFeeds, Deps{Fetcher: &fakeFetcher{result: batches}, Enricher: &cancelEnricher{cancel: cancel}, Store: st}, nil, nil)

	report, err := m.RunCycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report == nil || report.Finished.IsZero() {
		t.Fatalf("report = %+v, want a finished report", report)
	}
	if m.LastReport() != report {
		t.Error("LastReport should return the cancelled cycle's report")
	}
	if st.saves != 0 {
		t.Errorf("saves = %d, a cancelled cycle must not write", st.saves)
	}
}

// missSearcher never finds anything.
type missSearcher struct{ calls atomic.Int32 }

func (s *missSearcher) Search(context.Context, string) (*tunebat.Track, error) {
	s.calls.Add(1)
	return nil, nil
}

func TestManager_MissTimesSurviveRestarts(t *testing.T) {
	st := &memStore{}
	searcher := &missSearcher{}
	retryAfter := 200 * time.Millisecond

	// each cycle uses a fresh Manager, as a cron job or restarted process would
	run := func() *Report {
		t.Helper()
		e := enrich.New(searcher, enrich.Options{MissRetryAfter: retryAfter}, nil)
		m := NewManager(testFeeds, Deps{Fetcher: &fakeFetcher{result: batches}, Enricher: e, Store: st}, nil, nil)
		report, err := m.RunCycle(context.Background())
		if err != nil {
			t.Fatalf("RunCycle: %v", err)
		}
		return report
	}

	run()
	if got := searcher.calls.Load(); got != 2 {
		t.Fatalf("first run lookups = %d, want 2", got)
	}
	first := st.releases[0].EnrichedAt

	time.Sleep(retryAfter + 50*time.Millisecond)
	report := run()
	if got := searcher.calls.Load(); got != 4 {
		t.Fatalf("second run lookups = %d, want 4", got)
	}
	if !report.Persisted || st.saves != 2 {
		t.Errorf("re-checked misses should be saved, persisted=%v saves=%d", report.Persisted, st.saves)
	}
	if !st.releases[0].EnrichedAt.After(first) {
		t.Error("stored lookup time should move forward after a re-check")
	}

	report = run()
	if got := searcher.calls.Load(); got != 4 {
		t.Errorf("third run lookups = %d, want 4 (misses are still recent)", got)
	}
	if report.Persisted {
		t.Error("a run without lookups should not write the cache")
	}
}

func TestManager_CyclesDoNotOverlap(t *testing.T) {
	fetcher := &fakeFetcher{result: batches, block: make(chan struct{})}
	m := NewManager(testFeeds, Deps{Fetcher: fetcher, Enricher: &keyEnricher{}, Store: &memStore{}}, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := m.RunCycle(context.Background())
		done <- err
	}()

	// wait until the first cycle is inside FetchAll
	deadline := time.Now().Add(2 * time.Second)
	for fetcher.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if _, err := m.RunCycle(context.Background()); !errors.Is(err, ErrCycleRunning) {
		t.Errorf("concurrent RunCycle err = %v, want ErrCycleRunning", err)
	}

	close(fetcher.block)
	if err := <-done; err != nil {
		t.Errorf("first cycle: %v", err)
	}
}

func TestManager_Watch(t *testing.T) {
	fetcher := &fakeFetcher{result: batches}
	m := NewManager(testFeeds, Deps{Fetcher: fetcher, Enricher: &keyEnricher{}, Store: &memStore{}}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var reports atomic.Int32
	errc := make(chan error, 1)
	go func() {
		errc <- m.Watch(ctx, 10*time.Millisecond, func(r *Report, err error) {
			if err == nil && reports.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Watch err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("Watch did not stop")
	}
	if reports.Load() < 3 {
		t.Errorf("reports = %d, want at least 3", reports.Load())
	}
}

func TestManager_WatchRejectsBadInterval(t *testing.T) {
	m := NewManager(nil, Deps{}, nil, nil)
	if err := m.Watch(context.Background(), 0, nil); err == nil {
		t.Error("expected error for zero interval")
	}
}
