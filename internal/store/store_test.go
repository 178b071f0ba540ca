package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/handiism/releasedash/internal/config"
	"github.com/handiism/releasedash/internal/http"
	"github.com/handiism/releasedash/internal/model"
)

func sampleReleases() []*model.Release {
	tempo := 124.0
	pop := 61
	return []*model.Release{
		{
			ID:          "1",
			Title:       "Nightfall",
			Artists:     []string{"Kora"},
			Genres:      []string{"Techno"},
			ReleaseDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Tempo:       &tempo,
			Key:         "A min",
			Popularity:  &pop,
			EnrichedAt:  time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
		},
		{ID: "2", Title: "Undertow", Artists: []string{"Vex"}},
	}
}

func assertRoundTrip(t *testing.T, got []*model.Release) {
	t.Helper()
	want := sampleReleases()
	if len(got) != len(want) {
		t.Fatalf("loaded %d releases, want %d", len(got), len(want))
	}
	if got[0].ID != "1" || got[0].KeyString() != "A min" || got[0].TempoString() != "124" {
		t.Errorf("release 1 = %+v", got[0])
	}
	if !got[0].ReleaseDate.Equal(want[0].ReleaseDate) {
		t.Errorf("ReleaseDate = %v", got[0].ReleaseDate)
	}
	if got[1].Tempo != nil {
		t.Error("unknown tempo should stay nil")
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "cache", "releases.json"))

	got, err := s.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("Load on missing file = %v, %v", got, err)
	}

	if err := s.Save(ctx, sampleReleases()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertRoundTrip(t, got)
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "releases.json")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := NewFileStore(path).Save(ctx, sampleReleases()); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := NewFileStore(path).Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	assertRoundTrip(t, got)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releases.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "cache.db"), "releases")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	got, err := s.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("Load on empty db = %v, %v", got, err)
	}

	if err := s.Save(ctx, sampleReleases()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// second save exercises the upsert
	if err := s.Save(ctx, sampleReleases()); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertRoundTrip(t, got)
}

func TestSQLiteStore_KV(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:", "")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}
	if err := s.Put(ctx, "a", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "a", []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "a")
	if err != nil || string(got) != `{"v":2}` {
		t.Errorf("Get(a) = %s, %v", got, err)
	}
}

// blobServer is an in-memory JSON blob endpoint.
func blobServer(t *testing.T) (*httptest.Server, *[]byte) {
	t.Helper()
	var (
		mu   sync.Mutex
		body []byte
	)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case nethttp.MethodGet:
			if body == nil {
				nethttp.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
		case nethttp.MethodPut:
			data, _ := io.ReadAll(r.Body)
			if !json.Valid(data) {
				nethttp.Error(w, "invalid json", nethttp.StatusBadRequest)
				return
			}
			body = data
			w.WriteHeader(nethttp.StatusNoContent)
		default:
			w.WriteHeader(nethttp.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &body
}

func TestBlobStore(t *testing.T) {
	ctx := context.Background()
	srv, _ := blobServer(t)
	s := NewBlobStore(http.NewClient(), srv.URL+"/blob/releases")

	got, err := s.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("Load before save = %v, %v", got, err)
	}
	if err := s.Save(ctx, sampleReleases()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertRoundTrip(t, got)
}

func TestBlobStore_ServerError(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewBlobStore(http.NewClient(), srv.URL)
	if _, err := s.Load(context.Background()); !http.IsStatus(err, nethttp.StatusBadGateway) {
		t.Errorf("Load err = %v, want status 502", err)
	}
	if err := s.Save(context.Background(), nil); !http.IsStatus(err, nethttp.StatusBadGateway) {
		t.Errorf("Save err = %v, want status 502", err)
	}
}

type stubStore struct {
	releases []*model.Release
	loadErr  error
	saveErr  error
	saved    []*model.Release
}

func (s *stubStore) Load(context.Context) ([]*model.Release, error) { return s.releases, s.loadErr }

func (s *stubStore) Save(_ context.Context, r []*model.Release) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = r
	return nil
}

func TestLayered_Load(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name    string
		remote  *stubStore
		local   *stubStore
		wantLen int
		wantErr bool
	}{
		{"remote wins", &stubStore{releases: sampleReleases()}, &stubStore{releases: sampleReleases()[:1]}, 2, false},
		{"remote empty falls back", &stubStore{}, &stubStore{releases: sampleReleases()[:1]}, 1, false},
		{"remote down falls back", &stubStore{loadErr: down}, &stubStore{releases: sampleReleases()[:1]}, 1, false},
		{"all empty", &stubStore{}, &stubStore{}, 0, false},
		{"all down", &stubStore{loadErr: down}, &stubStore{loadErr: down}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLayered(nil, Tier{"remote", tt.remote}, Tier{"local", tt.local})
			got, err := l.Load(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestLayered_SaveWritesEveryTier(t *testing.T) {
	down := errors.New("remote down")
	remote := &stubStore{saveErr: down}
	local := &stubStore{}

	err := NewLayered(nil, Tier{"remote", remote}, Tier{"local", local}).Save(context.Background(), sampleReleases())
	if !errors.Is(err, down) {
		t.Errorf("err = %v, want remote failure", err)
	}
	if len(local.saved) != 2 {
		t.Error("local tier should still be written when remote fails")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name     string
		mutate   func(*config.Settings)
		wantType string
		wantErr  bool
	}{
		{"file", func(s *config.Settings) { s.CachePath = filepath.Join(dir, "a.json") }, "*store.FileStore", false},
		{"sqlite", func(s *config.Settings) {
			s.CacheBackend = "sqlite"
			s.CachePath = filepath.Join(dir, "a.db")
		}, "*store.SQLiteStore", false},
		{"layered", func(s *config.Settings) {
			s.CachePath = filepath.Join(dir, "b.json")
			s.BlobURL = "http://127.0.0.1:1/blob/releases"
		}, "*store.Layered", false},
		{"unknown", func(s *config.Settings) { s.CacheBackend = "redis" }, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := config.DefaultSettings()
			tt.mutate(settings)

			st, closeFn, err := Open(ctx, settings, http.NewClient(), nil)
			defer closeFn()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := fmt.Sprintf("%T", st); got != tt.wantType {
				t.Errorf("type = %s, want %s", got, tt.wantType)
			}
		})
	}
}
