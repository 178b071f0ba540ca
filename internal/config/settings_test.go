package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(settings.Feeds) != 3 {
		t.Errorf("default feeds = %d, want 3", len(settings.Feeds))
	}
	if settings.LookupMaxRetries != 5 {
		t.Errorf("LookupMaxRetries = %d, want 5", settings.LookupMaxRetries)
	}
}

func TestSaveLoad_RoundTripFormats(t *testing.T) {
	for _, name := range []string{"config.json", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			settings := DefaultSettings()
			settings.Feeds = []Feed{{Name: "only", URL: "http://feed.test/one"}}
			settings.LookupMaxRetries = 9
			settings.CacheBackend = "sqlite"

			if err := settings.Save(path); err != nil {
				t.Fatalf("Save: %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(loaded.Feeds) != 1 || loaded.Feeds[0].URL != "http://feed.test/one" {
				t.Errorf("Feeds = %+v", loaded.Feeds)
			}
			if loaded.LookupMaxRetries != 9 {
				t.Errorf("LookupMaxRetries = %d, want 9", loaded.LookupMaxRetries)
			}
			if loaded.CacheBackend != "sqlite" {
				t.Errorf("CacheBackend = %q, want sqlite", loaded.CacheBackend)
			}
		})
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "refresh_interval_minutes = 15.0\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.RefreshInterval() != 15*time.Minute {
		t.Errorf("RefreshInterval = %v, want 15m", settings.RefreshInterval())
	}
	if settings.SearchURL == "" {
		t.Error("SearchURL default should survive a partial file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Settings)
		wantErr     string
		wantRetries int
	}{
		{
			name:        "defaults are valid",
			mutate:      func(s *Settings) {},
			wantRetries: 5,
		},
		{
			name:        "retries clamped high",
			mutate:      func(s *Settings) { s.LookupMaxRetries = 40 },
			wantRetries: MaxRetries,
		},
		{
			name:        "retries clamped low",
			mutate:      func(s *Settings) { s.LookupMaxRetries = 0 },
			wantRetries: MinRetries,
		},
		{
			name:    "no feeds",
			mutate:  func(s *Settings) { s.Feeds = nil },
			wantErr: "at least one feed",
		},
		{
			name:    "unknown backend",
			mutate:  func(s *Settings) { s.CacheBackend = "redis" },
			wantErr: "unknown cache_backend",
		},
		{
			name:    "feed without url",
			mutate:  func(s *Settings) { s.Feeds = []Feed{{Name: "x"}} },
			wantErr: "has no url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if s.LookupMaxRetries != tt.wantRetries {
				t.Errorf("LookupMaxRetries = %d, want %d", s.LookupMaxRetries, tt.wantRetries)
			}
		})
	}
}

func TestValidate_NamesUnnamedFeeds(t *testing.T) {
	s := DefaultSettings()
	s.Feeds = []Feed{{URL: "http://a"}, {Name: "b", URL: "http://b"}}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.Feeds[0].Name != "feed-1" {
		t.Errorf("Feeds[0].Name = %q, want feed-1", s.Feeds[0].Name)
	}
}
