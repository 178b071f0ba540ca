package feed

import (
	"context"

	"github.com/handiism/releasedash/internal/feed/dto"
	"github.com/handiism/releasedash/internal/model"
)

// LinksClient reads the download-links endpoint.
type LinksClient struct {
	client JSONGetter
	url    string
}

// NewLinksClient creates a LinksClient. An empty url makes Fetch a no-op.
func NewLinksClient(client JSONGetter, url string) *LinksClient {
	return &LinksClient{client: client, url: url}
}

// Fetch returns download links keyed by release ID.
func (lc *LinksClient) Fetch(ctx context.Context) (map[string][]string, error) {
	if lc.url == "" {
		return nil, nil
	}

	var items []dto.JSONLinks
	if err := lc.client.GetJSON(ctx, lc.url, &items); err != nil {
		return nil, err
	}

	links := make(map[string][]string, len(items))
	for _, item := range items {
		id := string(item.ID)
		if id == "" {
			continue
		}
		links[id] = append(links[id], item.RadioDownloadLinks...)
	}
	return links, nil
}

// MergeLinks adds new download links to matching releases and returns the
// number of links added. Links for unknown IDs are ignored.
func MergeLinks(releases []*model.Release, links map[string][]string) int {
	added := 0
	for _, r := range releases {
		if l, ok := links[r.ID]; ok {
			added += r.AddDownloadLinks(l...)
		}
	}
	return added
}
