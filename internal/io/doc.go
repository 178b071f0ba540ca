// Package ioutils provides file system and image processing utilities.
//
// # File Operations
//
//	// Replace a cache file without exposing partial writes
//	err := ioutils.WriteFileAtomic(ctx, "/data/releases.json", data)
//
//	// Write a playlist, creating its folder
//	err := ioutils.WriteFile(ctx, "/music/Dusk/releases.m3u", content)
//
// # Image Processing
//
// The ImageService prepares cover art before it is embedded in tags:
//
//	svc := ioutils.NewImageService()
//	cover, _ := svc.PrepareCover(ctx, imageData, 1000)
package ioutils
