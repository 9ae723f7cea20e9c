package research

import (
	"context"
	"fmt"
	"strings"
)

// Synthesizer renders the notes into the Markdown research brief. The report
// is built deterministically so a run with zero retrieved sources still
// produces a well-formed document.
func (s *Stages) Synthesizer() Stage {
	return Stage{
		Name:  "synthesize",
		Agent: "synthesizer",
		Run: func(ctx context.Context, st State) (State, map[string]any, error) {
			st.ReportMD = buildReport(st.Topic, st.Notes, s.Model, s.ChainName)
			return st, nil, nil
		},
	}
}

func buildReport(topic string, notes []Note, model, provider string) string {
	var b strings.Builder

	title := topic
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&b, "# Research Brief: %s\n\n", title)

	b.WriteString("**Executive Summary**\n\n")
	if len(notes) == 0 {
		b.WriteString("_No sources retrieved._\n")
	} else {
		b.WriteString("This brief synthesizes key points from the retrieved sources.\n")
	}
	b.WriteString("\n## Key Takeaways\n")

	if len(notes) == 0 {
		b.WriteString("- No findings available.\n")
	} else {
		for _, n := range notes {
			head := ""
			if len(n.Bullets) > 0 {
				head = n.Bullets[0]
			}
			fmt.Fprintf(&b, "- %s (%s)\n", head, n.URL)
		}
	}

	b.WriteString("\n## Citations\n")
	if len(notes) == 0 {
		b.WriteString("- (none)\n")
	} else {
		for _, n := range notes {
			if n.URL != "" {
				fmt.Fprintf(&b, "- %s\n", n.URL)
			}
		}
	}

	fmt.Fprintf(&b, "\n_Model: %s · Search: %s_\n", model, provider)
	return b.String()
}
