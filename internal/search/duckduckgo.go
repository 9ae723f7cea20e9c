package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/httpclient"
)

const ddgEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the keyless HTML results page. It is the last-resort
// provider in the chain because it needs no credentials.
type DuckDuckGo struct {
	client *httpclient.Client
	url    string
}

// NewDuckDuckGo creates a DuckDuckGo provider.
func NewDuckDuckGo(client *httpclient.Client) *DuckDuckGo {
	if client == nil {
		client = httpclient.New(httpclient.Config{
			UserAgent: browserUA,
		})
	}
	return &DuckDuckGo{client: client, url: ddgEndpoint}
}

// SetEndpoint overrides the results page URL. Used in tests.
func (d *DuckDuckGo) SetEndpoint(url string) { d.url = url }

// Name returns the provider name.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Search scrapes the HTML results page for the query.
func (d *DuckDuckGo) Search(ctx context.Context, query string, max int, domains []string) ([]Candidate, error) {
	params := url.Values{"q": {foldDomains(query, domains)}}

	resp, err := d.client.Do(ctx, "GET", d.url, params, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("duckduckgo: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse results page: %w", err)
	}

	out := make([]Candidate, 0, max)
	doc.Find("div.result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveRedirect(href)
		if target == "" {
			return true
		}
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = target
		}
		snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
		out = append(out, Candidate{
			Title:   title,
			URL:     target,
			Snippet: snippet,
			Engine:  d.Name(),
		})
		return len(out) < max
	})
	return out, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<encoded> redirect links.
// Direct links pass through untouched.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}
