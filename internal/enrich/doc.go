// Package enrich attaches audio attributes from the lookup service to
// fetched releases.
//
// The Enricher walks releases sequentially with a fixed delay between
// lookups and backs off exponentially when the service rate limits it.
// Results of earlier passes are reused by release ID.
package enrich
