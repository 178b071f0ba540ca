package audio

import (
	"os"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/handiism/releasedash/internal/model"
)

// TagEditAction defines how to handle individual ID3 tags.
//
// Each tag field can be configured independently to determine whether
// it should be modified, cleared, or left unchanged.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the release value.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    ModifyTags: true,
//	    Artist:     TagModify,
//	    Title:      TagModify,
//	    Tempo:      TagModify,      // TBPM from enrichment
//	    Key:        TagModify,      // TKEY from enrichment
//	    Comments:   TagEmpty,       // Clear any existing comments
//	    Genre:      TagDoNotModify, // Keep the player's genre
//	}
type TagConfig struct {
	// ModifyTags is a master switch. If false, no text tags are modified.
	ModifyTags bool

	// Artist controls the TPE1 (Lead artist) frame.
	Artist TagEditAction

	// Title controls the TIT2 (Title) frame.
	Title TagEditAction

	// Album controls the TALB (Album title) frame, set to the release title.
	Album TagEditAction

	// Genre controls the TCON (Content type) frame.
	Genre TagEditAction

	// Label controls the TPUB (Publisher) frame.
	Label TagEditAction

	// Tempo controls the TBPM (Beats per minute) frame.
	Tempo TagEditAction

	// Key controls the TKEY (Initial key) frame.
	Key TagEditAction

	// Year controls the TYER (Year) frame.
	Year TagEditAction

	// Date controls the TDRC (Recording time) frame (ID3v2.4).
	Date TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction
}

// DefaultTagConfig returns the default tag configuration: every frame is
// modified except comments, which are cleared.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags: true,
		Artist:     TagModify,
		Title:      TagModify,
		Album:      TagModify,
		Genre:      TagModify,
		Label:      TagModify,
		Tempo:      TagModify,
		Key:        TagModify,
		Year:       TagModify,
		Date:       TagModify,
		Comments:   TagEmpty,
	}
}

// Tagger writes ID3 tags to downloaded release files.
//
// Unknown release values never overwrite existing frames: a TagModify
// action with no value leaves the frame as it is.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//	if err := tagger.SaveTags(path, release, coverBytes); err != nil {
//	    log.Printf("Failed to tag %s: %v", path, err)
//	}
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// SaveTags writes ID3 tags for release to the MP3 file at path. artwork is
// JPEG cover art; nil skips the picture frame.
func (t *Tagger) SaveTags(path string, release *model.Release, artwork []byte) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if t.config.ModifyTags {
		t.updateTextTags(tag, release)
	}

	if artwork != nil {
		t.updateArtwork(tag, artwork)
	}

	return tag.Save()
}

func (t *Tagger) updateTextTags(tag *id3v2.Tag, r *model.Release) {
	year, date := "", ""
	if !r.ReleaseDate.IsZero() {
		year = r.ReleaseDate.Format("2006")
		date = r.ReleaseDate.Format("2006-01-02")
	}
	tempo := ""
	if r.Tempo != nil {
		tempo = r.TempoString()
	}

	frames := []struct {
		id     string
		action TagEditAction
		value  string
	}{
		{tag.CommonID("Lead artist/Lead performer/Soloist/Performing group"), t.config.Artist, strings.Join(r.Artists, "/")},
		{tag.CommonID("Title/Songname/Content description"), t.config.Title, r.Title},
		{tag.CommonID("Album/Movie/Show title"), t.config.Album, r.Title},
		{tag.CommonID("Content type"), t.config.Genre, strings.Join(r.Genres, "/")},
		{"TPUB", t.config.Label, r.Label},
		{"TBPM", t.config.Tempo, tempo},
		{"TKEY", t.config.Key, r.Key},
		{"TYER", t.config.Year, year},
		{"TDRC", t.config.Date, date},
	}

	for _, f := range frames {
		switch f.action {
		case TagEmpty:
			tag.DeleteFrames(f.id)
		case TagModify:
			if f.value != "" {
				tag.AddTextFrame(f.id, id3v2.EncodingUTF8, f.value)
			}
		}
	}

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

// updateArtwork embeds cover art as an attached picture frame.
func (t *Tagger) updateArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	pic := id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	}
	tag.AddAttachedPicture(pic)
}
