package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/llm"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/metrics"
)

var planLineExpr = regexp.MustCompile(`^(\d+[\).\]]|[-*•])\s+`)

// Planner asks the LLM for a short research plan. On any backend failure it
// falls back to a static plan; planning never aborts a run.
func (s *Stages) Planner() Stage {
	return Stage{
		Name:  "plan",
		Agent: "planner",
		Describe: func(st State) string {
			return "Planning: " + st.Topic
		},
		Run: func(ctx context.Context, st State) (State, map[string]any, error) {
			plan := s.buildPlan(ctx, st)
			st.Plan = plan
			return st, map[string]any{"steps": len(plan)}, nil
		},
	}
}

func (s *Stages) buildPlan(ctx context.Context, st State) []string {
	fallback := []string{
		"Clarify scope for: " + st.Topic,
		"Identify 3-6 high-quality sources",
		"Extract key claims & evidence",
		"Synthesize into a brief report with citations",
	}
	if !s.llmEnabled() {
		return fallback
	}

	resp, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: "You are a precise research planner. Output 3-6 short, actionable steps."},
			{Role: "user", Content: fmt.Sprintf("Topic: %s\nDepth: %s\nDomains: %s",
				st.Topic, st.Depth, strings.Join(st.Domains, ", "))},
		},
		Temperature: 0.1,
		MaxTokens:   300,
	})
	if err != nil {
		metrics.RecordLLMError(s.Model, "planner")
		s.log.Warn("planner LLM failed, using fallback plan", logger.ErrorFields("complete", err))
		return fallback
	}
	metrics.RecordLLMUsage(s.Model, "planner", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if plan := parsePlan(resp.Content); len(plan) > 0 {
		return plan
	}
	return fallback
}

// parsePlan pulls bullet or numbered list items out of the LLM response,
// falling back to sentence splitting, capped at six steps.
func parsePlan(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if planLineExpr.MatchString(trimmed) {
			lines = append(lines, planLineExpr.ReplaceAllString(trimmed, ""))
		}
	}
	if len(lines) == 0 {
		for _, part := range regexp.MustCompile(`[.;]\s+`).Split(text, -1) {
			if p := strings.TrimSpace(part); p != "" {
				lines = append(lines, p)
			}
		}
	}
	if len(lines) > 6 {
		lines = lines[:6]
	}
	return lines
}
