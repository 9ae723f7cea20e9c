package research

import (
	"context"
	"strings"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/llm"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/metrics"
)

const fallbackCritique = "Check for outdated sources; add quantitative evidence if available."

// Critic reviews the generated brief with the LLM. The static critique is
// used when the backend is unavailable or errors; critique never aborts a
// run.
func (s *Stages) Critic() Stage {
	return Stage{
		Name:  "critique",
		Agent: "critic",
		Run: func(ctx context.Context, st State) (State, map[string]any, error) {
			st.Critique = s.buildCritique(ctx, st)
			return st, map[string]any{"notes": 1}, nil
		},
	}
}

func (s *Stages) buildCritique(ctx context.Context, st State) string {
	if !s.llmEnabled() {
		return fallbackCritique
	}

	report := st.ReportMD
	if report == "" {
		report = "# (empty)"
	}
	resp, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a rigorous, concise reviewer. Provide 2-4 bullet critique points to strengthen the brief. Be specific and actionable."},
			{Role: "user", Content: report},
		},
		Temperature: 0.3,
		MaxTokens:   220,
	})
	if err != nil {
		metrics.RecordLLMError(s.Model, "critic")
		s.log.Warn("critic LLM failed, using fallback critique", logger.ErrorFields("complete", err))
		return fallbackCritique
	}
	metrics.RecordLLMUsage(s.Model, "critic", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if critique := strings.TrimSpace(resp.Content); critique != "" {
		return critique
	}
	return fallbackCritique
}
