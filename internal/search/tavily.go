package search

import (
	"context"
	"fmt"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/httpclient"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily searches through the Tavily API. Supports native domain restriction.
type Tavily struct {
	apiKey string
	client *httpclient.Client
	url    string
}

// NewTavily creates a Tavily provider.
func NewTavily(apiKey string, client *httpclient.Client) *Tavily {
	if client == nil {
		client = httpclient.New(httpclient.Config{})
	}
	return &Tavily{apiKey: apiKey, client: client, url: tavilyEndpoint}
}

// SetEndpoint overrides the API endpoint. Used in tests.
func (t *Tavily) SetEndpoint(url string) { t.url = url }

// Name returns the provider name.
func (t *Tavily) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeImages  bool     `json:"include_images"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search queries Tavily. An unset API key behaves like an empty result set so
// the chain can keep going without noise.
func (t *Tavily) Search(ctx context.Context, query string, max int, domains []string) ([]Candidate, error) {
	if t.apiKey == "" {
		return nil, nil
	}

	depth := "basic"
	if max > 5 {
		depth = "advanced"
	}
	req := tavilyRequest{
		APIKey:         t.apiKey,
		Query:          query,
		SearchDepth:    depth,
		MaxResults:     max,
		IncludeDomains: domains,
	}

	var resp tavilyResponse
	if err := t.client.PostJSON(ctx, t.url, req, &resp); err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}

	out := make([]Candidate, 0, len(resp.Results))
	for _, item := range resp.Results {
		if item.URL == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = item.URL
		}
		out = append(out, Candidate{
			Title:   title,
			URL:     item.URL,
			Snippet: item.Content,
			Engine:  t.Name(),
		})
		if len(out) >= max {
			break
		}
	}
	return out, nil
}
