package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/handiism/releasedash/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"json", "config.json", `"search_url"`},
		{"toml", "config.toml", "search_url = "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)

			if out, err := execute(t, "config", "init", "--path", path); err != nil {
				t.Fatalf("config init: %v\n%s", err, out)
			}
			if _, err := execute(t, "config", "init", "--path", path); err == nil {
				t.Error("second init without --overwrite should fail")
			}

			out, err := execute(t, "--config", path, "config", "show")
			if err != nil {
				t.Fatalf("config show: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("config show output missing %q:\n%s", tt.want, out)
			}

			out, err = execute(t, "--config", path, "config", "validate")
			if err != nil || !strings.Contains(out, "Configuration valid") {
				t.Errorf("config validate = %v\n%s", err, out)
			}
		})
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if _, err := execute(t, "config", "init", "--path", path); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "--config", path, "export", "--format", "xspf"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"48h", now.Add(-48 * time.Hour), false},
		{"-48h", time.Time{}, true},
		{"last week", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSince(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSince(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseSince(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterFlags_SelectReleases(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	fast, slow := 140.0, 118.0
	releases := []*model.Release{
		{ID: "1", Title: "Nightfall", Tempo: &fast, ReleaseDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Title: "Low Tide", Tempo: &slow, ReleaseDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "3", Title: "Ember", ReleaseDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	tests := []struct {
		name    string
		flags   filterFlags
		want    string
		wantErr bool
	}{
		{"default", filterFlags{sort: "-date"}, "2,1,3", false},
		{"limit", filterFlags{sort: "-date", limit: 1}, "2", false},
		{"tempo", filterFlags{sort: "-tempo", minTempo: 100}, "1,2", false},
		{"since age", filterFlags{sort: "date", since: "360h"}, "1,2", false},
		{"inverted tempo range", filterFlags{minTempo: 150, maxTempo: 120}, "", true},
		{"bad sort", filterFlags{sort: "colour"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := tt.flags.selectReleases(releases, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			if strings.Join(ids, ",") != tt.want {
				t.Errorf("ids = %v, want %s", ids, tt.want)
			}
		})
	}
}
