package store

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/handiism/releasedash/internal/http"
	"github.com/handiism/releasedash/internal/model"
)

// JSONClient is the subset of http.Client used by BlobStore.
type JSONClient interface {
	GetJSON(ctx context.Context, url string, v any) error
	PutJSON(ctx context.Context, url string, v any) error
}

// BlobStore keeps the snapshot in a remote JSON blob endpoint. GET reads
// the whole snapshot and PUT replaces it.
//
// The endpoint may be any JSON blob service or the /blob route of
// releasedash serve:
//
//	remote := store.NewBlobStore(client, "http://127.0.0.1:8787/blob/releases")
type BlobStore struct {
	client JSONClient
	url    string
}

var _ Store = (*BlobStore)(nil)

// NewBlobStore creates a BlobStore for url.
func NewBlobStore(client JSONClient, url string) *BlobStore {
	return &BlobStore{client: client, url: strings.TrimSpace(url)}
}

// Load fetches the snapshot. A 404 or an empty body yields an empty
// snapshot.
func (s *BlobStore) Load(ctx context.Context) ([]*model.Release, error) {
	var raw json.RawMessage
	err := s.client.GetJSON(ctx, s.url, &raw)
	if http.IsStatus(err, nethttp.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load blob %s: %w", s.url, err)
	}
	if isNull(raw) {
		return nil, nil
	}
	return decode(raw)
}

// Save overwrites the remote snapshot.
func (s *BlobStore) Save(ctx context.Context, releases []*model.Release) error {
	if releases == nil {
		releases = []*model.Release{}
	}
	if err := s.client.PutJSON(ctx, s.url, releases); err != nil {
		return fmt.Errorf("save blob %s: %w", s.url, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == "{}"
}
