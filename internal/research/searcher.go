package research

import (
	"context"
)

// Searcher queries the provider chain for candidate sources. The chain
// swallows provider failures internally, so this stage cannot abort a run;
// an empty candidate list is a valid outcome.
func (s *Stages) Searcher() Stage {
	return Stage{
		Name:  "search",
		Agent: "searcher",
		Run: func(ctx context.Context, st State) (State, map[string]any, error) {
			results := s.Chain.Search(ctx, st.Topic, st.MaxSources, st.Domains)
			st.Results = results
			return st, map[string]any{"count": len(results)}, nil
		},
	}
}
