package store

import (
	"context"
	"fmt"

	"github.com/handiism/releasedash/internal/config"
	"github.com/hashicorp/go-hclog"
)

// Open builds the cache described by settings: the local backend, with the
// remote blob layered in front of it when BlobURL is set. The returned
// close function releases database handles and is never nil.
func Open(ctx context.Context, settings *config.Settings, client JSONClient, logger hclog.Logger) (Store, func() error, error) {
	closeFn := func() error { return nil }

	var local Store
	switch settings.CacheBackend {
	case "sqlite":
		db, err := OpenSQLite(ctx, settings.CachePath, settings.CacheKey)
		if err != nil {
			return nil, closeFn, err
		}
		local, closeFn = db, db.Close
	case "file", "":
		local = NewFileStore(settings.CachePath)
	default:
		return nil, closeFn, fmt.Errorf("unknown cache backend %q", settings.CacheBackend)
	}

	if settings.BlobURL == "" {
		return local, closeFn, nil
	}

	layered := NewLayered(logger,
		Tier{Name: "remote", Store: NewBlobStore(client, settings.BlobURL)},
		Tier{Name: "local", Store: local},
	)
	return layered, closeFn, nil
}
