package model

import (
	"fmt"
	"strings"
	"time"
)

// releaseDateFormats are tried in order by ParseReleaseDate.
var releaseDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"02 Jan 2006 15:04:05 MST",
}

// ParseReleaseDate parses the date formats seen in label feeds.
// It returns the zero time when nothing matches.
func ParseReleaseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, format := range releaseDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RelativeDate describes t relative to now at day granularity.
//
// Both times are truncated to calendar days in now's location first, so a
// release dated earlier today is "today" regardless of the hour.
//
//	RelativeDate(now.AddDate(0, 0, -1), now)  // "yesterday"
//	RelativeDate(now.AddDate(0, 0, -10), now) // "1 week ago"
func RelativeDate(t, now time.Time) string {
	if t.IsZero() {
		return Unknown
	}
	loc := now.Location()
	day := func(x time.Time) time.Time {
		x = x.In(loc)
		return time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, loc)
	}
	// Round to absorb DST shifts of an hour.
	days := int(day(now).Sub(day(t)).Round(24*time.Hour) / (24 * time.Hour))

	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "yesterday"
	case days == -1:
		return "tomorrow"
	case days < 0:
		return fmt.Sprintf("in %d days", -days)
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week") + " ago"
	case days < 365:
		return plural(days/30, "month") + " ago"
	default:
		return plural(days/365, "year") + " ago"
	}
}

// DateString formats the release date as YYYY-MM-DD.
func (r *Release) DateString() string {
	if r.ReleaseDate.IsZero() {
		return Unknown
	}
	return r.ReleaseDate.Format("2006-01-02")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
