package snapshot

import (
	"slices"
	"time"

	"github.com/handiism/releasedash/internal/model"
)

// Changes lists release IDs that differ between two snapshots.
type Changes struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// Empty reports whether the snapshots were equivalent.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// Count returns the total number of differing releases.
func (c Changes) Count() int {
	return len(c.Added) + len(c.Removed) + len(c.Changed)
}

// Index maps releases by ID. Later duplicates win.
func Index(releases []*model.Release) map[string]*model.Release {
	idx := make(map[string]*model.Release, len(releases))
	for _, r := range releases {
		idx[r.ID] = r
	}
	return idx
}

// Diff compares two snapshots by release ID. Order within the snapshots is
// ignored, as is the time of the last lookup attempt; everything else is
// compared field by field. IDs in the result are sorted.
func Diff(old, new []*model.Release) Changes {
	oldIdx := Index(old)
	newIdx := Index(new)

	var c Changes
	for id, n := range newIdx {
		o, ok := oldIdx[id]
		switch {
		case !ok:
			c.Added = append(c.Added, id)
		case !Equal(o, n):
			c.Changed = append(c.Changed, id)
		}
	}
	for id := range oldIdx {
		if _, ok := newIdx[id]; !ok {
			c.Removed = append(c.Removed, id)
		}
	}

	slices.Sort(c.Added)
	slices.Sort(c.Removed)
	slices.Sort(c.Changed)
	return c
}

// Equal compares two releases. EnrichedAt only counts for misses, where it
// decides when the next lookup is due. Nil and empty slices are equal.
func Equal(a, b *model.Release) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Key == b.Key &&
		a.Label == b.Label &&
		a.CoverURL == b.CoverURL &&
		a.EnrichmentFound == b.EnrichmentFound &&
		(a.EnrichmentFound || sameTime(a.EnrichedAt, b.EnrichedAt)) &&
		sameTime(a.ReleaseDate, b.ReleaseDate) &&
		equalPtr(a.Tempo, b.Tempo) &&
		equalPtr(a.Popularity, b.Popularity) &&
		slices.Equal(a.Artists, b.Artists) &&
		slices.Equal(a.Genres, b.Genres) &&
		slices.Equal(a.DownloadLinks, b.DownloadLinks) &&
		slices.Equal(a.PreviewLinks, b.PreviewLinks) &&
		slices.Equal(a.Sources, b.Sources)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameTime(a, b time.Time) bool {
	return a.Equal(b)
}

