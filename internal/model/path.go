package model

import (
	"path/filepath"
	"regexp"
	"strings"
)

// PathConfig holds path formatting settings for downloaded releases.
//
// Both fields support placeholders replaced with release values:
//   - {artist} - First credited artist
//   - {title} - Release title
//   - {label} - Record label
//   - {year}, {month}, {day} - Release date components
//
// Example configuration:
//
//	cfg := &PathConfig{
//	    DownloadsPath:  "/home/user/Music/Releases/{label}",
//	    FileNameFormat: "{artist} - {title}.mp3",
//	}
type PathConfig struct {
	// DownloadsPath is the folder template for saving releases.
	DownloadsPath string

	// FileNameFormat is the file name template, including the extension.
	FileNameFormat string
}

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	multiSpace       = regexp.MustCompile(`\s+`)
)

// FolderPath computes the folder a release is downloaded into.
func (r *Release) FolderPath(cfg *PathConfig) string {
	path := r.expand(cfg.DownloadsPath, true)

	// Limit path length for cross-platform compatibility (Windows MAX_PATH)
	if len(path) >= 248 {
		path = path[:247]
	}
	return path
}

// FilePath computes the full local path of the release's audio file.
func (r *Release) FilePath(cfg *PathConfig) string {
	folder := r.FolderPath(cfg)
	fileName := SanitizeFileName(r.expand(cfg.FileNameFormat, false))
	filePath := filepath.Join(folder, fileName)

	// Limit total path length for Windows compatibility (MAX_PATH = 260)
	if len(filePath) >= 260 {
		ext := filepath.Ext(fileName)
		maxLen := 11 - len(ext)
		if maxLen > 0 && maxLen < len(fileName) {
			filePath = filepath.Join(folder, fileName[:maxLen]+ext)
		}
	}
	return filePath
}

// expand replaces placeholders in a template. Folder templates sanitize each
// value so that separators in the template survive.
func (r *Release) expand(template string, sanitizeValues bool) string {
	value := func(s string) string {
		if s == "" {
			s = Unknown
		}
		if sanitizeValues {
			return SanitizeFileName(s)
		}
		return s
	}

	year, month, day := "0000", "00", "00"
	if !r.ReleaseDate.IsZero() {
		year = r.ReleaseDate.Format("2006")
		month = r.ReleaseDate.Format("01")
		day = r.ReleaseDate.Format("02")
	}

	replacer := strings.NewReplacer(
		"{year}", year,
		"{month}", month,
		"{day}", day,
		"{artist}", value(r.PrimaryArtist()),
		"{title}", value(r.Title),
		"{label}", value(r.Label),
	)
	return replacer.Replace(template)
}

// SanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Trailing whitespace is removed
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
func SanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}
