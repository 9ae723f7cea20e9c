package research

import (
	"context"
	"strings"
)

// Summarizer condenses each document into a short note. The character budget
// per bullet is derived from the depth tier's target word count.
func (s *Stages) Summarizer() Stage {
	return Stage{
		Name:  "summarize",
		Agent: "summarizer",
		Run: func(ctx context.Context, st State) (State, map[string]any, error) {
			targetWords := st.Limits.SummaryWords
			if targetWords <= 0 {
				targetWords = 200
			}
			bulletChars := int(float64(targetWords) * 6 * 0.6)
			if bulletChars < 80 {
				bulletChars = 80
			}

			docs := st.Docs
			if len(docs) > st.MaxSources && st.MaxSources > 0 {
				docs = docs[:st.MaxSources]
			}

			notes := make([]Note, 0, len(docs))
			for _, d := range docs {
				notes = append(notes, Note{
					URL: d.URL,
					Bullets: []string{
						shorten(d.Content, bulletChars),
						"Title: " + d.Title,
					},
				})
			}
			st.Notes = notes
			return st, map[string]any{"notes": len(notes), "target_words": targetWords}, nil
		},
	}
}

// shorten collapses whitespace and truncates to n characters with an
// ellipsis.
func shorten(text string, n int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= n {
		return collapsed
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
