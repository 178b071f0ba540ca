package model

import (
	"strconv"
	"strings"
	"time"
)

// Unknown is the display placeholder for values the feeds or the lookup
// service did not provide.
const Unknown = "Unknown"

// Release represents a single track or EP entry sourced from a label feed.
//
// A Release is created by a fetch pass, merged by ID across feeds, then
// enriched in place with tempo, key and popularity from the lookup service.
// Enrichment fields are pointers or empty strings when unknown so that the
// persisted JSON carries nulls instead of placeholder text.
//
// Example:
//
//	r := &Release{ID: "123", Title: "Nightfall", Artists: []string{"Kora"}}
//	r.QueryString() // "Kora Nightfall"
//	r.TempoString() // "Unknown" until enriched
type Release struct {
	// ID is the feed identifier and the merge key.
	ID string `json:"id"`

	// Title is the release name.
	Title string `json:"title"`

	// Artists lists the credited artists. The first one drives lookups.
	Artists []string `json:"artists"`

	// Genres holds the split, deduplicated genre names.
	Genres []string `json:"genres"`

	// ReleaseDate is the zero time when the feed date could not be parsed.
	ReleaseDate time.Time `json:"release_date"`

	// Tempo is the BPM from enrichment.
	Tempo *float64 `json:"tempo"`

	// Key is the musical key from enrichment.
	Key string `json:"key"`

	// Popularity is a 0-100 score from enrichment.
	Popularity *int `json:"popularity"`

	// Label is the record label. Feed data wins over enrichment.
	Label string `json:"label"`

	// CoverURL points at the cover art image.
	CoverURL string `json:"cover_url"`

	// DownloadLinks are the radio download links, in feed order.
	DownloadLinks []string `json:"download_links"`

	// PreviewLinks are audio previews returned by the lookup service.
	PreviewLinks []string `json:"preview_links"`

	// Sources names the feeds that carried this release.
	Sources []string `json:"sources"`

	// EnrichedAt is the time of the last lookup attempt, hit or miss.
	EnrichedAt time.Time `json:"enriched_at"`

	// EnrichmentFound reports whether the last lookup matched a track.
	EnrichmentFound bool `json:"enrichment_found"`
}

// Enrichment is the subset of Release filled by the lookup service.
type Enrichment struct {
	Tempo        *float64
	Key          string
	Popularity   *int
	PreviewLinks []string

	// AlbumName is the album the matched track belongs to. It stands in
	// for the label when the feed has none.
	AlbumName string
}

// PrimaryArtist returns the first credited artist, or "" if none.
func (r *Release) PrimaryArtist() string {
	if len(r.Artists) == 0 {
		return ""
	}
	return r.Artists[0]
}

// QueryString returns the lookup join key: first artist and title separated
// by a space. The join is fuzzy; the lookup service decides what matches.
func (r *Release) QueryString() string {
	return strings.TrimSpace(r.PrimaryArtist() + " " + r.Title)
}

// HasEnrichment returns true if any of tempo, key or popularity is known.
func (r *Release) HasEnrichment() bool {
	return r.Tempo != nil || r.Key != "" || r.Popularity != nil
}

// NeedsLookup reports whether the release should be sent to the lookup
// service. Releases with known enrichment never need one. Releases whose last
// lookup missed are retried once retryAfter has elapsed since that attempt.
func (r *Release) NeedsLookup(now time.Time, retryAfter time.Duration) bool {
	if r.HasEnrichment() {
		return false
	}
	if r.EnrichedAt.IsZero() {
		return true
	}
	return now.Sub(r.EnrichedAt) >= retryAfter
}

// ApplyEnrichment stores a lookup result on the release. A nil enrichment
// records a miss. The feed label is kept when present; otherwise the
// matched album name fills it.
func (r *Release) ApplyEnrichment(e *Enrichment, at time.Time) {
	r.EnrichedAt = at
	if e == nil {
		r.EnrichmentFound = false
		return
	}
	r.EnrichmentFound = true
	r.Tempo = e.Tempo
	r.Key = e.Key
	r.Popularity = e.Popularity
	if r.Label == "" {
		r.Label = e.AlbumName
	}
	if len(e.PreviewLinks) > 0 {
		r.PreviewLinks = append([]string(nil), e.PreviewLinks...)
	}
}

// CopyEnrichment copies known enrichment from a previously cached record.
// It returns false and leaves r untouched when src has nothing to offer.
func (r *Release) CopyEnrichment(src *Release) bool {
	if src == nil || (!src.HasEnrichment() && src.EnrichedAt.IsZero()) {
		return false
	}
	r.Tempo = src.Tempo
	r.Key = src.Key
	r.Popularity = src.Popularity
	if r.Label == "" {
		r.Label = src.Label
	}
	if len(r.PreviewLinks) == 0 {
		r.PreviewLinks = append([]string(nil), src.PreviewLinks...)
	}
	r.EnrichedAt = src.EnrichedAt
	r.EnrichmentFound = src.EnrichmentFound
	return true
}

// AddDownloadLinks appends links not already present and returns how many
// were added.
func (r *Release) AddDownloadLinks(links ...string) int {
	added := 0
	for _, link := range links {
		link = strings.TrimSpace(link)
		if link == "" || containsString(r.DownloadLinks, link) {
			continue
		}
		r.DownloadLinks = append(r.DownloadLinks, link)
		added++
	}
	return added
}

// ArtistsString joins artists for display.
func (r *Release) ArtistsString() string {
	if len(r.Artists) == 0 {
		return Unknown
	}
	return strings.Join(r.Artists, ", ")
}

// GenresString joins genres for display.
func (r *Release) GenresString() string {
	if len(r.Genres) == 0 {
		return Unknown
	}
	return strings.Join(r.Genres, ", ")
}

// TempoString formats the tempo rounded to a whole BPM.
func (r *Release) TempoString() string {
	if r.Tempo == nil {
		return Unknown
	}
	return strconv.FormatFloat(*r.Tempo, 'f', 0, 64)
}

// KeyString returns the musical key or the placeholder.
func (r *Release) KeyString() string {
	if r.Key == "" {
		return Unknown
	}
	return r.Key
}

// PopularityString formats the popularity score.
func (r *Release) PopularityString() string {
	if r.Popularity == nil {
		return Unknown
	}
	return strconv.Itoa(*r.Popularity)
}

// LabelString returns the label or the placeholder.
func (r *Release) LabelString() string {
	if r.Label == "" {
		return Unknown
	}
	return r.Label
}

// Clone returns a deep copy of the release.
func (r *Release) Clone() *Release {
	c := *r
	c.Artists = append([]string(nil), r.Artists...)
	c.Genres = append([]string(nil), r.Genres...)
	c.DownloadLinks = append([]string(nil), r.DownloadLinks...)
	c.PreviewLinks = append([]string(nil), r.PreviewLinks...)
	c.Sources = append([]string(nil), r.Sources...)
	if r.Tempo != nil {
		t := *r.Tempo
		c.Tempo = &t
	}
	if r.Popularity != nil {
		p := *r.Popularity
		c.Popularity = &p
	}
	return &c
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
