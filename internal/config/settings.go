package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/releasedash/internal/model"
	"github.com/pelletier/go-toml/v2"
)

// Retry bounds accepted by Validate.
const (
	MinRetries = 1
	MaxRetries = 15
)

// Feed describes one upstream label feed.
type Feed struct {
	Name string `json:"name" toml:"name"`
	URL  string `json:"url" toml:"url"`
}

// Settings holds all configuration options.
type Settings struct {
	// Feeds
	Feeds            []Feed  `json:"feeds" toml:"feeds"`
	LinksURL         string  `json:"links_url" toml:"links_url"`
	FeedRequestDelay float64 `json:"feed_request_delay" toml:"feed_request_delay"`

	// Lookup service
	SearchURL           string  `json:"search_url" toml:"search_url"`
	ProxyURL            string  `json:"proxy_url" toml:"proxy_url"`
	LookupRequestDelay  float64 `json:"lookup_request_delay" toml:"lookup_request_delay"`
	LookupMaxRetries    int     `json:"lookup_max_retries" toml:"lookup_max_retries"`
	LookupRetryCooldown float64 `json:"lookup_retry_cooldown" toml:"lookup_retry_cooldown"`
	LookupRetryExponent float64 `json:"lookup_retry_exponent" toml:"lookup_retry_exponent"`
	MissRetryAfterHours float64 `json:"miss_retry_after_hours" toml:"miss_retry_after_hours"`

	// Cache
	CacheBackend string `json:"cache_backend" toml:"cache_backend"` // file, sqlite
	CachePath    string `json:"cache_path" toml:"cache_path"`
	CacheKey     string `json:"cache_key" toml:"cache_key"`
	BlobURL      string `json:"blob_url" toml:"blob_url"`

	// Refresh
	RefreshIntervalMinutes float64 `json:"refresh_interval_minutes" toml:"refresh_interval_minutes"`

	// Download settings
	DownloadsPath             string  `json:"downloads_path" toml:"downloads_path"`
	FileNameFormat            string  `json:"file_name_format" toml:"file_name_format"`
	MaxConcurrentDownloads    int     `json:"max_concurrent_downloads" toml:"max_concurrent_downloads"`
	DownloadMaxRetries        int     `json:"download_max_retries" toml:"download_max_retries"`
	DownloadRetryCooldown     float64 `json:"download_retry_cooldown" toml:"download_retry_cooldown"`
	DownloadRetryExponent     float64 `json:"download_retry_exponent" toml:"download_retry_exponent"`
	AllowedFileSizeDifference float64 `json:"allowed_file_size_difference" toml:"allowed_file_size_difference"`

	// Cover art and tags
	SaveCoverArtInTags    bool `json:"save_cover_art_in_tags" toml:"save_cover_art_in_tags"`
	CoverArtInTagsMaxSize int  `json:"cover_art_in_tags_max_size" toml:"cover_art_in_tags_max_size"`
	ModifyTags            bool `json:"modify_tags" toml:"modify_tags"`

	// Playlist settings
	PlaylistFormat string `json:"playlist_format" toml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `json:"m3u_extended" toml:"m3u_extended"`

	// Server
	ListenAddr string `json:"listen_addr" toml:"listen_addr"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "releasedash")
	return &Settings{
		Feeds: []Feed{
			{Name: "general", URL: "https://amethyst-plume-reading.glitch.me/generaldownload"},
			{Name: "techno", URL: "https://amethyst-plume-reading.glitch.me/technodownload"},
			{Name: "house", URL: "https://amethyst-plume-reading.glitch.me/housedownload"},
		},
		LinksURL:         "https://amethyst-plume-reading.glitch.me/downloadlinks",
		FeedRequestDelay: 1.0,

		SearchURL:           "https://api.tunebat.com/api/tracks/search",
		ProxyURL:            "https://api.allorigins.win/get",
		LookupRequestDelay:  0.5,
		LookupMaxRetries:    5,
		LookupRetryCooldown: 1.0,
		LookupRetryExponent: 2.0,
		MissRetryAfterHours: 24,

		CacheBackend: "file",
		CachePath:    filepath.Join(dataDir, "releases.json"),
		CacheKey:     "releases",

		RefreshIntervalMinutes: 60,

		DownloadsPath:             filepath.Join(homeDir, "Music", "Releases", "{label}"),
		FileNameFormat:            "{artist} - {title}.mp3",
		MaxConcurrentDownloads:    4,
		DownloadMaxRetries:        7,
		DownloadRetryCooldown:     0.2,
		DownloadRetryExponent:     4.0,
		AllowedFileSizeDifference: 0.05,

		SaveCoverArtInTags:    true,
		CoverArtInTagsMaxSize: 1000,
		ModifyTags:            true,

		PlaylistFormat: "m3u",
		M3UExtended:    true,

		ListenAddr: "127.0.0.1:8787",
	}
}

// Load reads settings from a JSON or TOML file, chosen by extension.
// A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isTOML(path) {
		if err := toml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("decode toml config: %w", err)
		}
	} else if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("decode json config: %w", err)
	}

	return settings, nil
}

// Save writes settings to a JSON or TOML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks settings and clamps retry counts into range.
func (s *Settings) Validate() error {
	var errs []error
	if len(s.Feeds) == 0 {
		errs = append(errs, errors.New("at least one feed is required"))
	}
	for i, f := range s.Feeds {
		if strings.TrimSpace(f.URL) == "" {
			errs = append(errs, fmt.Errorf("feed %d has no url", i))
		}
		if strings.TrimSpace(f.Name) == "" {
			s.Feeds[i].Name = fmt.Sprintf("feed-%d", i+1)
		}
	}
	if strings.TrimSpace(s.SearchURL) == "" {
		errs = append(errs, errors.New("search_url is required"))
	}
	switch s.CacheBackend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown cache_backend %q", s.CacheBackend))
	}

	if s.LookupMaxRetries < MinRetries {
		s.LookupMaxRetries = MinRetries
	}
	if s.LookupMaxRetries > MaxRetries {
		s.LookupMaxRetries = MaxRetries
	}
	if s.LookupRetryExponent < 1 {
		s.LookupRetryExponent = 2
	}
	if s.MaxConcurrentDownloads < 1 {
		s.MaxConcurrentDownloads = 1
	}
	if s.DownloadMaxRetries < 1 {
		s.DownloadMaxRetries = 1
	}
	if s.RefreshIntervalMinutes <= 0 {
		s.RefreshIntervalMinutes = 60
	}

	return errors.Join(errs...)
}

// RefreshInterval returns the polling interval.
func (s *Settings) RefreshInterval() time.Duration {
	return seconds(s.RefreshIntervalMinutes * 60)
}

// FeedDelay returns the fixed delay between feed requests.
func (s *Settings) FeedDelay() time.Duration {
	return seconds(s.FeedRequestDelay)
}

// LookupDelay returns the fixed delay between lookup requests.
func (s *Settings) LookupDelay() time.Duration {
	return seconds(s.LookupRequestDelay)
}

// LookupCooldown returns the first wait after a rate-limited lookup.
func (s *Settings) LookupCooldown() time.Duration {
	return seconds(s.LookupRetryCooldown)
}

// MissRetryAfter returns how long a lookup miss is trusted.
func (s *Settings) MissRetryAfter() time.Duration {
	return seconds(s.MissRetryAfterHours * 3600)
}

// ToPathConfig converts settings to PathConfig.
func (s *Settings) ToPathConfig() *model.PathConfig {
	return &model.PathConfig{
		DownloadsPath:  s.DownloadsPath,
		FileNameFormat: s.FileNameFormat,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "releasedash", "config.json")
	}
	return "releasedash.json"
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
