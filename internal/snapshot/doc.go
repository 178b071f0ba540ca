// Package snapshot compares release snapshots so that unchanged refreshes
// skip the cache write.
package snapshot
