package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/handiism/releasedash/internal/model"
)

// ErrNotFound is returned by KV.Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store persists the enriched release snapshot.
//
// Load returns an empty snapshot and no error when nothing has been saved
// yet. Save overwrites the previous snapshot wholesale.
type Store interface {
	Load(ctx context.Context) ([]*model.Release, error)
	Save(ctx context.Context, releases []*model.Release) error
}

// KV is a raw key/value blob store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

func encode(releases []*model.Release) ([]byte, error) {
	if releases == nil {
		releases = []*model.Release{}
	}
	data, err := json.MarshalIndent(releases, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]*model.Release, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var releases []*model.Release
	if err := json.Unmarshal(data, &releases); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return compact(releases), nil
}

// compact drops null entries and records without an ID.
func compact(releases []*model.Release) []*model.Release {
	out := releases[:0]
	for _, r := range releases {
		if r != nil && r.ID != "" {
			out = append(out, r)
		}
	}
	return out
}
