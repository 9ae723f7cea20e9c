package research

import (
	"context"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/fetch"
)

// Retriever fetches candidate URLs concurrently and keeps the first
// MaxSources documents whose extraction qualifies. It races roughly twice as
// many URLs as needed and abandons the rest once the target is reached.
func (s *Stages) Retriever() Stage {
	return Stage{
		Name:  "retrieve",
		Agent: "retriever",
		Run: func(ctx context.Context, st State) (State, map[string]any, error) {
			k := st.MaxSources
			if k < 1 {
				k = 1
			}
			pool := 2 * k
			if pool > len(st.Results) {
				pool = len(st.Results)
			}

			urls := make([]string, 0, pool)
			for _, cand := range st.Results[:pool] {
				if cand.URL != "" {
					urls = append(urls, cand.URL)
				}
			}

			fetcher := fetch.NewFetcher(fetch.WithTimeout(st.Limits.FetchTimeout))
			docs := fetcher.FetchFirstK(ctx, urls, k)
			st.Docs = docs
			return st, map[string]any{"docs": len(docs)}, nil
		},
	}
}
