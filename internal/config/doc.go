// Package config provides configuration management for releasedash.
//
// This package handles:
//   - Loading and saving settings from JSON or TOML files
//   - Default configuration values
//   - Validation and clamping of retry and concurrency limits
//   - Conversion to PathConfig for the download package
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Three label feeds, tunebat lookups through the allorigins relay
//	// Hourly refresh, 5 lookup retries with doubling cooldown
//	// JSON file cache under ~/.local/share/releasedash
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.toml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// The format follows the file extension: ".toml" is decoded as TOML,
// anything else as JSON.
//
// # Saving Settings
//
//	settings.RefreshIntervalMinutes = 30
//	err := settings.Save("/path/to/config.json")
package config
