package search

import (
	"context"
	"regexp"
	"strings"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/metrics"
)

// Chain calls providers in preferred order, falling back to the next one only
// when the current provider returns an error. It never fails: when every
// provider errors the result is simply an empty list. Results are
// deduplicated by normalized host and optionally reordered so preferred-
// language candidates come first.
type Chain struct {
	providers  []Provider
	preferLang string
	log        *logger.Logger
}

// NewChain creates a chain over the given providers in preferred order.
// preferLang may be empty to disable language partitioning ("en" is the only
// recognized value).
func NewChain(preferLang string, providers ...Provider) *Chain {
	return &Chain{
		providers:  providers,
		preferLang: strings.ToLower(preferLang),
		log:        logger.WithComponent("search"),
	}
}

// Search returns up to k deduplicated, ranked candidates for the query.
// Roughly double the needed count is requested upstream to survive
// deduplication and language filtering.
func (c *Chain) Search(ctx context.Context, query string, k int, domains []string) []Candidate {
	if k < 1 {
		k = 1
	}
	pool := k * 2
	if pool < 10 {
		pool = 10
	}

	raw := c.searchWithFallback(ctx, query, pool, domains)
	dedup := dedupeByHost(raw)

	if c.preferLang == "en" {
		return takePreferred(dedup, k, looksEnglish)
	}
	if len(dedup) > k {
		dedup = dedup[:k]
	}
	return dedup
}

// searchWithFallback walks the provider order until one returns without
// error. Few or zero results do not trigger fallback; only errors do.
func (c *Chain) searchWithFallback(ctx context.Context, query string, max int, domains []string) []Candidate {
	for _, p := range c.providers {
		results, err := p.Search(ctx, query, max, domains)
		if err != nil {
			metrics.RecordSearch(p.Name(), false)
			c.log.Warn("provider failed, falling back", logger.Fields(
				logger.FieldProvider, p.Name(),
				logger.FieldError, err.Error(),
			))
			continue
		}
		metrics.RecordSearch(p.Name(), true)
		return results
	}
	return nil
}

// dedupeByHost keeps the first candidate per normalized host, preserving
// order so earlier provider rank wins ties.
func dedupeByHost(in []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(in))
	out := make([]Candidate, 0, len(in))
	for _, cand := range in {
		if cand.URL == "" {
			continue
		}
		host := normalizedHost(cand.URL)
		if host == "" {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, cand)
	}
	return out
}

// takePreferred fills the result from candidates passing the language check
// first, then backfills from the rest until k is reached or candidates run
// out.
func takePreferred(in []Candidate, k int, pass func(Candidate) bool) []Candidate {
	out := make([]Candidate, 0, k)
	taken := make(map[string]struct{}, k)

	for _, cand := range in {
		if len(out) >= k {
			break
		}
		if pass(cand) {
			out = append(out, cand)
			taken[cand.URL] = struct{}{}
		}
	}
	for _, cand := range in {
		if len(out) >= k {
			break
		}
		if _, ok := taken[cand.URL]; ok {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// cjkScript matches Hiragana/Katakana, CJK ideographs, and Hangul.
var cjkScript = regexp.MustCompile(`[\x{3040}-\x{30ff}\x{3400}-\x{9fff}\x{ac00}-\x{d7af}]`)

// looksEnglish is a lightweight script and TLD heuristic, not real language
// detection.
func looksEnglish(cand Candidate) bool {
	if cjkScript.MatchString(cand.Snippet) || cjkScript.MatchString(cand.Title) {
		return false
	}
	host := normalizedHost(cand.URL)
	for _, tld := range []string{".cn", ".jp", ".kr", ".ru"} {
		if strings.HasSuffix(host, tld) {
			return false
		}
	}
	return true
}
