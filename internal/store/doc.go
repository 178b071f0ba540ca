// Package store persists the enriched release snapshot.
//
// Backends:
//   - FileStore: a JSON file guarded by a gofrs/flock lock file
//   - SQLiteStore: a key/value table in SQLite, also usable as a raw KV
//   - BlobStore: a remote JSON blob endpoint (GET to read, PUT to replace)
//   - Layered: remote first, local second, writes to every tier
//
// Use Open to build the combination described by the configuration:
//
//	st, closeFn, err := store.Open(ctx, settings, httpClient, logger)
//	defer closeFn()
//	releases, err := st.Load(ctx)
package store
