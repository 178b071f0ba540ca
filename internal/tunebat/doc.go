// Package tunebat is a client for the tunebat track search, the lookup
// service that supplies tempo, key and popularity.
//
// Requests can go through a CORS relay whose JSON envelope carries the
// upstream body as a string in "contents" and the upstream status in
// "status.http_code". Both a relay 429 and an upstream 429 surface as
// ErrRateLimited so callers can back off.
package tunebat
