package view

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/releasedash/internal/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableOptions controls RenderTable output.
type TableOptions struct {
	// Color styles popularity by bucket with ANSI colors.
	Color bool

	// AbsoluteDates prints YYYY-MM-DD instead of relative dates.
	AbsoluteDates bool

	// Sort marks the sorted column header with an arrow.
	Sort SortState
}

var popularityColors = map[model.Bucket]lipgloss.Color{
	model.BucketLow:     lipgloss.Color("9"),
	model.BucketMedium:  lipgloss.Color("11"),
	model.BucketHigh:    lipgloss.Color("10"),
	model.BucketUnknown: lipgloss.Color("8"),
}

// PopularityStyle returns the style used for a popularity bucket.
func PopularityStyle(b model.Bucket) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(popularityColors[b])
}

// Columns returns the table headers, marking the sorted one.
func Columns(sort SortState) []string {
	headers := []string{"Date", "Title", "Artists", "Genres", "BPM", "Key", "Pop.", "Label"}
	for i, f := range Fields {
		if f != sort.Field {
			continue
		}
		if sort.Desc {
			headers[i] += " ↓"
		} else {
			headers[i] += " ↑"
		}
	}
	return headers
}

// Row returns the display cells of a release, placeholders included.
func Row(r *model.Release, now time.Time, absoluteDates bool) []string {
	date := model.RelativeDate(r.ReleaseDate, now)
	if absoluteDates {
		date = r.DateString()
	}
	return []string{
		date,
		titleOrUnknown(r.Title),
		r.ArtistsString(),
		r.GenresString(),
		r.TempoString(),
		r.KeyString(),
		r.PopularityString(),
		r.LabelString(),
	}
}

// RenderTable renders releases as a text table.
func RenderTable(releases []*model.Release, now time.Time, opts TableOptions) string {
	headers := Columns(opts.Sort)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, r := range releases {
		cells := Row(r, now, opts.AbsoluteDates)
		if opts.Color {
			cells[6] = PopularityStyle(model.PopularityBucket(r.Popularity)).Render(cells[6])
		}
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		tw.AppendRow(row)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 30},
		{Number: 4, WidthMax: 24},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func titleOrUnknown(s string) string {
	if s == "" {
		return model.Unknown
	}
	return s
}
