package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/handiism/releasedash/internal/model"
)

// Field is a sortable column.
type Field string

const (
	FieldDate       Field = "date"
	FieldTitle      Field = "title"
	FieldArtist     Field = "artist"
	FieldGenre      Field = "genre"
	FieldTempo      Field = "tempo"
	FieldKey        Field = "key"
	FieldPopularity Field = "popularity"
	FieldLabel      Field = "label"
)

// Fields lists every sortable column in display order.
var Fields = []Field{FieldDate, FieldTitle, FieldArtist, FieldGenre, FieldTempo, FieldKey, FieldPopularity, FieldLabel}

// ParseField converts a column name to a Field.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Fields, f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// SortState is the current sort column and direction. The zero value keeps
// input order.
type SortState struct {
	Field Field
	Desc  bool
}

// Toggle updates the state for a click on field: the same field flips the
// direction, a new field starts ascending.
func (s SortState) Toggle(field Field) SortState {
	if s.Field == field {
		return SortState{Field: field, Desc: !s.Desc}
	}
	return SortState{Field: field}
}

// String returns "field" or "-field" for descending order.
func (s SortState) String() string {
	if s.Field == "" {
		return ""
	}
	if s.Desc {
		return "-" + string(s.Field)
	}
	return string(s.Field)
}

// ParseSort parses the String form.
func ParseSort(s string) (SortState, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortState{}, nil
	}
	desc := strings.HasPrefix(s, "-")
	f, err := ParseField(strings.TrimPrefix(s, "-"))
	if err != nil {
		return SortState{}, err
	}
	return SortState{Field: f, Desc: desc}, nil
}

// Sort orders releases in place. The sort is stable, and releases whose
// sort value is unknown come last in either direction.
func (s SortState) Sort(releases []*model.Release) {
	if s.Field == "" {
		return
	}
	slices.SortStableFunc(releases, func(a, b *model.Release) int {
		aUnknown, bUnknown := s.unknown(a), s.unknown(b)
		switch {
		case aUnknown && bUnknown:
			return 0
		case aUnknown:
			return 1
		case bUnknown:
			return -1
		}
		c := s.compare(a, b)
		if s.Desc {
			return -c
		}
		return c
	})
}

func (s SortState) unknown(r *model.Release) bool {
	switch s.Field {
	case FieldDate:
		return r.ReleaseDate.IsZero()
	case FieldTitle:
		return r.Title == ""
	case FieldArtist:
		return r.PrimaryArtist() == ""
	case FieldGenre:
		return len(r.Genres) == 0
	case FieldTempo:
		return r.Tempo == nil
	case FieldKey:
		return r.Key == ""
	case FieldPopularity:
		return r.Popularity == nil
	case FieldLabel:
		return r.Label == ""
	}
	return false
}

func (s SortState) compare(a, b *model.Release) int {
	switch s.Field {
	case FieldDate:
		return a.ReleaseDate.Compare(b.ReleaseDate)
	case FieldTitle:
		return cmp.Compare(Fold(a.Title), Fold(b.Title))
	case FieldArtist:
		return cmp.Compare(Fold(a.PrimaryArtist()), Fold(b.PrimaryArtist()))
	case FieldGenre:
		return cmp.Compare(Fold(a.Genres[0]), Fold(b.Genres[0]))
	case FieldTempo:
		return cmp.Compare(*a.Tempo, *b.Tempo)
	case FieldKey:
		return cmp.Compare(Fold(a.Key), Fold(b.Key))
	case FieldPopularity:
		return cmp.Compare(*a.Popularity, *b.Popularity)
	case FieldLabel:
		return cmp.Compare(Fold(a.Label), Fold(b.Label))
	}
	return 0
}

// Genres returns the distinct genres across releases, sorted
// case-insensitively. The first spelling seen is kept.
func Genres(releases []*model.Release) []string {
	var all []string
	for _, r := range releases {
		all = append(all, r.Genres...)
	}
	genres := model.SplitGenres(all...)
	slices.SortStableFunc(genres, func(a, b string) int {
		return cmp.Compare(Fold(a), Fold(b))
	})
	return genres
}
