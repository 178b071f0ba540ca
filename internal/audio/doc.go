// Package audio writes ID3 tags to downloaded releases and builds
// playlists.
//
// # ID3 Tagging
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags(path, release, coverBytes)
//
// Besides artist, title, genre, label and dates, the tagger writes the
// enrichment values as TBPM (tempo) and TKEY (musical key).
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true)
//	content := creator.CreatePlaylist("Latest", audio.LinkEntries(releases, false))
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
