package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/view"
	"github.com/spf13/cobra"
)

// filterFlags holds the selection flags shared by list, download and export.
type filterFlags struct {
	search        string
	genre         string
	key           string
	minTempo      float64
	maxTempo      float64
	minPopularity int
	since         string
	sort          string
	limit         int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.search, "search", "s", "", "Match title, artists or label (case and accent insensitive)")
	flags.StringVarP(&f.genre, "genre", "g", "", "Only releases with this genre")
	flags.StringVar(&f.key, "key", "", "Only releases in this musical key")
	flags.Float64Var(&f.minTempo, "min-tempo", 0, "Minimum tempo in BPM")
	flags.Float64Var(&f.maxTempo, "max-tempo", 0, "Maximum tempo in BPM")
	flags.IntVar(&f.minPopularity, "min-popularity", 0, "Minimum popularity score (0-100)")
	flags.StringVar(&f.since, "since", "", "Only releases on or after this date (YYYY-MM-DD) or age (e.g. 168h)")
	flags.StringVar(&f.sort, "sort", "-date", "Sort field, prefixed with - for descending: "+fieldList())
	flags.IntVarP(&f.limit, "limit", "n", 0, "Maximum number of releases (0 for all)")
}

// selectReleases applies the filter, sort and limit flags.
func (f *filterFlags) selectReleases(releases []*model.Release, now time.Time) ([]*model.Release, view.SortState, error) {
	sortState, err := view.ParseSort(f.sort)
	if err != nil {
		return nil, sortState, err
	}
	if f.maxTempo > 0 && f.minTempo > f.maxTempo {
		return nil, sortState, fmt.Errorf("--min-tempo %.0f is above --max-tempo %.0f", f.minTempo, f.maxTempo)
	}

	filter := view.Filter{
		Search:        f.search,
		Genre:         f.genre,
		Key:           f.key,
		MinTempo:      f.minTempo,
		MaxTempo:      f.maxTempo,
		MinPopularity: f.minPopularity,
	}
	if filter.Since, err = parseSince(f.since, now); err != nil {
		return nil, sortState, err
	}

	selected := filter.Apply(releases)
	sortState.Sort(selected)
	if f.limit > 0 && len(selected) > f.limit {
		selected = selected[:f.limit]
	}
	return selected, sortState, nil
}

func parseSince(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("--since %q: expected YYYY-MM-DD or a duration", v)
}

func fieldList() string {
	names := make([]string, len(view.Fields))
	for i, f := range view.Fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
