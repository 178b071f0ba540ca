package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2"
	"github.com/handiism/releasedash/internal/model"
)

func textFrame(t *testing.T, tag *id3v2.Tag, id string) string {
	t.Helper()
	return tag.GetTextFrame(id).Text
}

func TestTagger_SaveTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.mp3")
	if err := os.WriteFile(path, []byte("not really audio"), 0644); err != nil {
		t.Fatal(err)
	}

	tempo := 123.6
	release := &model.Release{
		Title:       "Nightfall",
		Artists:     []string{"Kora", "Vex"},
		Genres:      []string{"Techno", "Minimal"},
		Label:       "Dusk",
		Tempo:       &tempo,
		Key:         "A min",
		ReleaseDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := NewTagger(nil).SaveTags(path, release, []byte{0xff, 0xd8, 0xff}); err != nil {
		t.Fatalf("SaveTags: %v", err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tag.Close()

	want := map[string]string{
		"TIT2": "Nightfall",
		"TPE1": "Kora/Vex",
		"TALB": "Nightfall",
		"TCON": "Techno/Minimal",
		"TPUB": "Dusk",
		"TBPM": "124",
		"TKEY": "A min",
		"TDRC": "2024-03-01",
	}
	for id, v := range want {
		if got := textFrame(t, tag, id); got != v {
			t.Errorf("%s = %q, want %q", id, got, v)
		}
	}
	if pics := tag.GetFrames(tag.CommonID("Attached picture")); len(pics) != 1 {
		t.Errorf("pictures = %d, want 1", len(pics))
	}
}

func TestTagger_UnknownValuesKeepFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	tag.AddTextFrame("TKEY", id3v2.EncodingUTF8, "F maj")
	if err := tag.Save(); err != nil {
		t.Fatal(err)
	}
	tag.Close()

	if err := NewTagger(nil).SaveTags(path, &model.Release{Title: "X"}, nil); err != nil {
		t.Fatalf("SaveTags: %v", err)
	}

	tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tag.Close()
	if got := textFrame(t, tag, "TKEY"); got != "F maj" {
		t.Errorf("TKEY = %q, an unknown key should not clear it", got)
	}
}

func TestTagger_MissingFile(t *testing.T) {
	if err := NewTagger(nil).SaveTags(filepath.Join(t.TempDir(), "nope.mp3"), &model.Release{}, nil); err == nil {
		t.Error("expected error for missing file")
	}
}
