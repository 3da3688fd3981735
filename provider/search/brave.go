// Package search provides a provider.SearchProvider implementation backed
// by the Brave Search API.
//
// No third-party Go client for Brave Search appears anywhere in the
// example corpus this module was grounded on, so this adapter talks to the
// HTTP API directly with net/http rather than importing an unvetted SDK.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Pharbi/arachnid/provider"
)

const defaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Provider implements provider.SearchProvider against the Brave Search
// Web Search API.
type Provider struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// New builds a Provider that authenticates with token via the
// X-Subscription-Token header. A nil httpClient falls back to a client
// with a 10 second timeout.
func New(token string, httpClient *http.Client) (*Provider, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("search: brave subscription token is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{httpClient: httpClient, endpoint: defaultEndpoint, token: token}, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search queries Brave for the given query and returns up to count
// results.
func (p *Provider) Search(ctx context.Context, query string, count int) ([]provider.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search: query is required")
	}
	if count <= 0 {
		count = 5
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", p.token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: brave request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: brave returned status %d", resp.StatusCode)
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	results := make([]provider.SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, provider.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
	}
	return results, nil
}

var _ provider.SearchProvider = (*Provider)(nil)
