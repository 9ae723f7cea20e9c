// Package search implements the web search providers and the fallback chain
// that ranks, deduplicates, and language-filters their results.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Candidate is one search-result entry before its content has been fetched.
type Candidate struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Engine  string `json:"engine,omitempty"`
}

// Provider is a single search backend. All providers take the same inputs;
// a provider that cannot restrict results to domains natively must fold the
// constraint into the query text instead of rejecting the call.
type Provider interface {
	// Name identifies the provider in logs and candidate tags.
	Name() string
	// Search returns up to max candidates for the query.
	Search(ctx context.Context, query string, max int, domains []string) ([]Candidate, error)
}

// foldDomains clamps a query to the given sites for engines without native
// domain restriction: "(q) (site:a OR site:b)".
func foldDomains(query string, domains []string) string {
	if len(domains) == 0 {
		return query
	}
	sites := make([]string, 0, len(domains))
	for _, d := range domains {
		sites = append(sites, "site:"+d)
	}
	return fmt.Sprintf("(%s) (%s)", query, strings.Join(sites, " OR "))
}

// normalizedHost lowercases the URL's host and collapses the www. form so
// candidates from the same site compare equal.
func normalizedHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host
}
