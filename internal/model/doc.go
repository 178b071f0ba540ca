// Package model defines the core data structures used throughout
// releasedash.
//
// # Release
//
// Release is a single track or EP from a label feed, merged by ID and
// enriched with tempo, key and popularity:
//
//	r := &model.Release{ID: "42", Title: "Nightfall", Artists: []string{"Kora"}}
//	r.ApplyEnrichment(&model.Enrichment{Key: "A min"}, time.Now())
//	fmt.Println(r.KeyString()) // "A min"
//
// Unknown values are kept as nil or empty in the data and shown as the
// Unknown placeholder by the *String helpers.
//
// # Helpers
//
//   - SplitGenres splits "Techno / House|Minimal" style genre strings
//   - ParseReleaseDate and RelativeDate handle feed dates
//   - PopularityBucket groups scores at the 30 and 60 boundaries
//
// # Path Configuration
//
// PathConfig controls where downloaded releases are saved:
//
//	cfg := &model.PathConfig{
//	    DownloadsPath:  "/music/{label}",
//	    FileNameFormat: "{artist} - {title}.mp3",
//	}
//
// Available placeholders: {artist}, {title}, {label}, {year}, {month}, {day}
package model
