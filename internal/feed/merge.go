package feed

import (
	"strings"

	"github.com/handiism/releasedash/internal/model"
)

// derivedIDPrefix marks IDs built from artist and title for feed entries
// that carry no identifier.
const derivedIDPrefix = "derived:"

// Merge combines feed batches into one list keyed by release ID.
//
// Releases keep the order in which their ID was first seen. For scalar
// fields the first non-empty value wins; artists, genres, download links and
// sources are unioned in order.
func Merge(batches []Batch) []*model.Release {
	var merged []*model.Release
	index := make(map[string]*model.Release)

	for _, batch := range batches {
		for _, r := range batch.Releases {
			if r == nil {
				continue
			}
			r = r.Clone()
			if r.ID == "" {
				r.ID = DerivedID(r)
			}

			existing, ok := index[r.ID]
			if !ok {
				index[r.ID] = r
				merged = append(merged, r)
				continue
			}
			mergeInto(existing, r)
		}
	}
	return merged
}

// DerivedID builds a stable ID from the first artist and title.
func DerivedID(r *model.Release) string {
	key := strings.ToLower(strings.Join(strings.Fields(r.QueryString()), "-"))
	return derivedIDPrefix + key
}

func mergeInto(dst, src *model.Release) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.ReleaseDate.IsZero() {
		dst.ReleaseDate = src.ReleaseDate
	}
	if dst.Label == "" {
		dst.Label = src.Label
	}
	if dst.CoverURL == "" {
		dst.CoverURL = src.CoverURL
	}
	dst.Artists = union(dst.Artists, src.Artists, true)
	dst.Genres = model.SplitGenres(append(append([]string(nil), dst.Genres...), src.Genres...)...)
	dst.AddDownloadLinks(src.DownloadLinks...)
	dst.Sources = union(dst.Sources, src.Sources, false)
}

func union(dst, src []string, foldCase bool) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s || (foldCase && strings.EqualFold(d, s)) {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
