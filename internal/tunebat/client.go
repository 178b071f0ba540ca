package tunebat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/handiism/releasedash/internal/http"
	"github.com/handiism/releasedash/internal/model"
)

// ErrRateLimited is returned when the lookup service or the relay answers
// with HTTP 429.
var ErrRateLimited = errors.New("lookup rate limited")

// Searcher looks up audio attributes for an "artist title" query.
type Searcher interface {
	Search(ctx context.Context, query string) (*Track, error)
}

// Track is the first search hit returned by the lookup service.
type Track struct {
	Tempo      *float64 `json:"b"`
	Key        string   `json:"k"`
	Popularity *float64 `json:"p"`
	AlbumName  string   `json:"an"`
	Previews   links    `json:"r"`
}

// Enrichment converts the hit to model form. Popularity is rounded and
// clamped to 0..100.
func (t *Track) Enrichment() *model.Enrichment {
	e := &model.Enrichment{
		Tempo:        t.Tempo,
		Key:          strings.TrimSpace(t.Key),
		AlbumName:    strings.TrimSpace(t.AlbumName),
		PreviewLinks: []string(t.Previews),
	}
	if t.Popularity != nil {
		p := int(math.Round(*t.Popularity))
		p = max(0, min(100, p))
		e.Popularity = &p
	}
	return e
}

type searchResponse struct {
	Data struct {
		Items []Track `json:"items"`
	} `json:"data"`
}

// relayEnvelope is the CORS relay's wrapper around the upstream body.
type relayEnvelope struct {
	Contents *string `json:"contents"`
	Status   struct {
		HTTPCode int `json:"http_code"`
	} `json:"status"`
}

// Client queries the tunebat search endpoint, optionally through a CORS
// relay such as allorigins.
//
// Example:
//
//	client := tunebat.NewClient(httpClient, settings.SearchURL, settings.ProxyURL)
//	track, err := client.Search(ctx, "Kora Nightfall")
//	if errors.Is(err, tunebat.ErrRateLimited) {
//	    // wait and retry
//	}
type Client struct {
	http      *http.Client
	searchURL string
	proxyURL  string
}

var _ Searcher = (*Client)(nil)

// NewClient creates a Client. An empty proxyURL queries the service directly.
func NewClient(httpClient *http.Client, searchURL, proxyURL string) *Client {
	if httpClient == nil {
		httpClient = http.NewClient()
	}
	return &Client{
		http:      httpClient,
		searchURL: strings.TrimSpace(searchURL),
		proxyURL:  strings.TrimSpace(proxyURL),
	}
}

// Search returns the first hit for query, or nil when nothing matched.
func (c *Client) Search(ctx context.Context, query string) (*Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	body, err := c.http.Get(ctx, c.requestURL(query))
	if err != nil {
		if http.IsStatus(err, nethttp.StatusTooManyRequests) {
			return nil, ErrRateLimited
		}
		return nil, err
	}

	if c.proxyURL != "" {
		body, err = unwrapRelay(body)
		if err != nil {
			return nil, err
		}
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(resp.Data.Items) == 0 {
		return nil, nil
	}
	return &resp.Data.Items[0], nil
}

func (c *Client) requestURL(query string) string {
	apiURL := c.searchURL + "?term=" + url.QueryEscape(query)
	if c.proxyURL == "" {
		return apiURL
	}
	return c.proxyURL + "?url=" + url.QueryEscape(apiURL)
}

func unwrapRelay(body []byte) ([]byte, error) {
	var env relayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode relay envelope: %w", err)
	}
	switch code := env.Status.HTTPCode; {
	case code == nethttp.StatusTooManyRequests:
		return nil, ErrRateLimited
	case code != 0 && code != nethttp.StatusOK:
		return nil, fmt.Errorf("upstream returned HTTP %d", code)
	}
	if env.Contents == nil || *env.Contents == "" {
		return nil, errors.New("relay returned empty contents")
	}
	return []byte(*env.Contents), nil
}

// links decodes a preview list given either as an array or a single URL.
type links []string

func (l *links) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		*l = nil
		return nil
	}
	if single != "" {
		*l = links{single}
	}
	return nil
}
