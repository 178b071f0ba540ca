package model

import "strings"

// SplitGenres splits raw genre strings on "/", "," and "|".
//
// Each part is trimmed and empty parts are dropped. Duplicates are removed
// case-insensitively, keeping the first spelling seen.
//
// Example:
//
//	SplitGenres("Techno / Minimal", "techno|House") // ["Techno", "Minimal", "House"]
func SplitGenres(raw ...string) []string {
	var genres []string
	seen := make(map[string]struct{})
	for _, value := range raw {
		parts := strings.FieldsFunc(value, func(r rune) bool {
			return r == '/' || r == ',' || r == '|'
		})
		for _, part := range parts {
			part = strings.Join(strings.Fields(part), " ")
			if part == "" {
				continue
			}
			key := strings.ToLower(part)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			genres = append(genres, part)
		}
	}
	return genres
}

// HasGenre reports whether the release carries the genre, ignoring case.
func (r *Release) HasGenre(genre string) bool {
	for _, g := range r.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}
