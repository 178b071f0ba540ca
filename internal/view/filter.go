package view

import (
	"strings"
	"time"
	"unicode"

	"github.com/handiism/releasedash/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Filter selects releases for display. Zero-valued fields match
// everything.
type Filter struct {
	// Search matches title, artists and label, ignoring case and accents.
	Search string

	// Genre matches one of the release genres, ignoring case.
	Genre string

	// Key matches the musical key exactly, ignoring case.
	Key string

	// MinTempo and MaxTempo bound the tempo. Releases with unknown tempo
	// are excluded when either bound is set.
	MinTempo float64
	MaxTempo float64

	// MinPopularity excludes releases below the score, and unknown ones
	// when set.
	MinPopularity int

	// Since excludes releases dated before it.
	Since time.Time
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match reports whether r passes the filter.
func (f Filter) Match(r *model.Release) bool {
	if f.Search != "" {
		needle := Fold(f.Search)
		haystack := Fold(r.Title + "\x00" + strings.Join(r.Artists, "\x00") + "\x00" + r.Label)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if f.Genre != "" && !r.HasGenre(f.Genre) {
		return false
	}
	if f.Key != "" && !strings.EqualFold(strings.TrimSpace(f.Key), r.Key) {
		return false
	}
	if f.MinTempo > 0 || f.MaxTempo > 0 {
		if r.Tempo == nil {
			return false
		}
		if f.MinTempo > 0 && *r.Tempo < f.MinTempo {
			return false
		}
		if f.MaxTempo > 0 && *r.Tempo > f.MaxTempo {
			return false
		}
	}
	if f.MinPopularity > 0 && (r.Popularity == nil || *r.Popularity < f.MinPopularity) {
		return false
	}
	if !f.Since.IsZero() && (r.ReleaseDate.IsZero() || r.ReleaseDate.Before(f.Since)) {
		return false
	}
	return true
}

// Apply returns the releases that pass the filter, in input order.
func (f Filter) Apply(releases []*model.Release) []*model.Release {
	out := make([]*model.Release, 0, len(releases))
	for _, r := range releases {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Fold lowercases s, strips diacritics and collapses whitespace so that
// "Beyoncé  Knowles" matches "beyonce knowles".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}
