package fetch

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/httpclient"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
)

// MinContentRunes is the extraction threshold below which a page counts as a
// failed fetch. Near-empty extractions are noise, not sources.
const MinContentRunes = 400

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Document is a fetched and extracted full-text result for one URL.
type Document struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Fetcher downloads pages and extracts readable text.
type Fetcher struct {
	client     *httpclient.Client
	timeout    time.Duration
	minContent int
	log        *logger.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithMinContent overrides the minimum extracted content length in runes.
func WithMinContent(n int) FetcherOption {
	return func(f *Fetcher) { f.minContent = n }
}

// WithClient overrides the HTTP client.
func WithClient(c *httpclient.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// NewFetcher creates a fetcher with a browser user agent.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		timeout:    20 * time.Second,
		minContent: MinContentRunes,
		log:        logger.WithComponent("fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = httpclient.New(httpclient.Config{
			Timeout:   f.timeout,
			UserAgent: browserUA,
		})
	}
	return f
}

// Fetch downloads one URL and extracts its text. It fails on network errors,
// non-2xx responses, and extractions shorter than the minimum threshold.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Document, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.Do(fetchCtx, "GET", url, nil, nil, nil)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	if !resp.OK() {
		return Document{}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	title, content, err := extractText(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", url, err)
	}
	if utf8.RuneCountInString(content) < f.minContent {
		return Document{}, fmt.Errorf("extract %s: content too short (%d runes)", url, utf8.RuneCountInString(content))
	}
	if title == "" {
		title = url
	}
	return Document{URL: url, Title: title, Content: content}, nil
}

// FetchFirstK fetches urls concurrently and returns the first k documents
// whose extraction qualifies, in completion order. Outstanding fetches are
// abandoned once k is reached. Partial results are valid; FetchFirstK never
// errors.
func (f *Fetcher) FetchFirstK(ctx context.Context, urls []string, k int) []Document {
	docs := Race(ctx, urls, k, DefaultMaxInFlight, func(ctx context.Context, url string) (Document, error) {
		doc, err := f.Fetch(ctx, url)
		if err != nil {
			f.log.Debug("fetch skipped", logger.Fields("url", url, "error", err.Error()))
		}
		return doc, err
	})
	return docs
}

// extractText pulls the page title and readable body text out of HTML.
// Script, style, and chrome elements are stripped before text extraction.
func extractText(html []byte) (title, content string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, nav, header, footer, aside, form, iframe").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	content = strings.Join(strings.Fields(body.Text()), " ")
	return title, content, nil
}
