// Package http provides the HTTP client used for feeds, lookups, the blob
// cache and file downloads.
//
// The Client in this package handles:
//   - User-Agent headers
//   - JSON GET/PUT with typed status errors
//   - File downloads with progress tracking
//   - File size retrieval via HEAD requests
//   - Timeout handling
//
// # Basic Usage
//
//	client := http.NewClient()
//
//	// Fetch a feed
//	var items []dto.JSONRelease
//	err := client.GetJSON(ctx, feedURL, &items)
//
//	// Detect rate limiting
//	if http.IsStatus(err, 429) {
//	    // wait and retry
//	}
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking:
//
//	pw := &http.ProgressWriter{
//	    Writer:   file,
//	    Total:    contentLength,
//	    OnUpdate: func(written, total int64) { /* update UI */ },
//	}
package http
