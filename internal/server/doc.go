// Package server serves the release snapshot and a JSON blob cache over
// HTTP with gin.
//
// Routes:
//
//	GET  /healthz
//	GET  /releases        filtered and sorted snapshot
//	GET  /releases/:id
//	POST /refresh         run one refresh cycle
//	GET  /blob/:key       read a stored JSON blob
//	PUT  /blob/:key       overwrite a stored JSON blob
//
// The blob routes are compatible with store.BlobStore, so one instance can
// host the shared cache for others.
package server
