// Package download saves releases from their radio download links to the
// local library.
//
// # Manager
//
// The Manager coordinates the download process:
//
//  1. Resolve each release's file path from the path templates
//  2. Skip files already present with the expected size
//  3. Download files concurrently, retrying with exponential backoff
//  4. Fetch and resize cover art
//  5. Tag MP3 files with ID3 metadata, including tempo and key
//  6. Write a playlist per destination folder (optional)
//
// # Basic Usage
//
//	manager := download.NewManager(settings, nil, func(event progress.Event) {
//	    fmt.Println(event.Message)
//	})
//
//	res, err := manager.Download(ctx, releases)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// settings.MaxConcurrentDownloads bounds how many releases are fetched in
// parallel.
//
// # Retry Logic
//
// Failed downloads are retried with exponential backoff, configurable via
// settings.DownloadMaxRetries, settings.DownloadRetryCooldown and
// settings.DownloadRetryExponent.
package download
