package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/httpclient"
)

const serpAPIEndpoint = "https://serpapi.com/search.json"

// SerpAPI searches Google through SerpAPI. Domain restriction is folded into
// the query text since the engine has no native allow-list parameter.
type SerpAPI struct {
	apiKey string
	client *httpclient.Client
	url    string
}

// NewSerpAPI creates a SerpAPI provider.
func NewSerpAPI(apiKey string, client *httpclient.Client) *SerpAPI {
	if client == nil {
		client = httpclient.New(httpclient.Config{})
	}
	return &SerpAPI{apiKey: apiKey, client: client, url: serpAPIEndpoint}
}

// SetEndpoint overrides the API endpoint. Used in tests.
func (s *SerpAPI) SetEndpoint(url string) { s.url = url }

// Name returns the provider name.
func (s *SerpAPI) Name() string { return "serpapi" }

type serpAPIResponse struct {
	OrganicResults []struct {
		Link    string `json:"link"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search queries SerpAPI. An unset API key behaves like an empty result set.
func (s *SerpAPI) Search(ctx context.Context, query string, max int, domains []string) ([]Candidate, error) {
	if s.apiKey == "" {
		return nil, nil
	}

	num := max * 2
	if num > 20 {
		num = 20
	}
	params := url.Values{
		"engine":  {"google"},
		"q":       {foldDomains(query, domains)},
		"num":     {strconv.Itoa(num)},
		"api_key": {s.apiKey},
	}

	var resp serpAPIResponse
	if err := s.client.GetJSON(ctx, s.url, params, &resp); err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}

	out := make([]Candidate, 0, len(resp.OrganicResults))
	for _, item := range resp.OrganicResults {
		if item.Link == "" {
			continue
		}
		out = append(out, Candidate{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Engine:  s.Name(),
		})
		if len(out) >= max {
			break
		}
	}
	return out, nil
}
