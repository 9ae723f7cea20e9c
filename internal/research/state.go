// Package research implements the multi-step research pipeline: its shared
// state, the engine that sequences stages, and the stages themselves.
package research

import (
	"time"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/fetch"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/search"
)

// Depth tiers.
const (
	DepthQuick    = "quick"
	DepthStandard = "standard"
	DepthDeep     = "deep"
)

// Limits are the per-depth budgets governing a run.
type Limits struct {
	MaxSources   int
	FetchTimeout time.Duration
	SummaryWords int
}

var depthPresets = map[string]Limits{
	DepthQuick:    {MaxSources: 3, FetchTimeout: 8 * time.Second, SummaryWords: 120},
	DepthStandard: {MaxSources: 6, FetchTimeout: 12 * time.Second, SummaryWords: 200},
	DepthDeep:     {MaxSources: 10, FetchTimeout: 18 * time.Second, SummaryWords: 350},
}

// PresetFor returns the limits for a depth tier, defaulting to standard for
// unknown tiers.
func PresetFor(depth string) Limits {
	if preset, ok := depthPresets[depth]; ok {
		return preset
	}
	return depthPresets[DepthStandard]
}

// Note holds the extracted takeaways for one document.
type Note struct {
	URL     string   `json:"url"`
	Bullets []string `json:"bullets"`
}

// State is the evolving pipeline state for one run. It is passed by value
// between stages: each stage returns a new State with fields added or
// replaced, never partially mutated in place, so stage n+1 cannot observe
// later mutations by stage n.
type State struct {
	RunID      string
	Topic      string
	Depth      string
	Domains    []string
	MaxSources int
	Limits     Limits

	Plan      []string
	Results   []search.Candidate
	Docs      []fetch.Document
	Notes     []Note
	ReportMD  string
	Critique  string
	Artifacts map[string]string
}

// NewState builds the initial state, injecting depth-based limits. A positive
// maxSources overrides the preset.
func NewState(runID, topic, depth string, domains []string, maxSources int) State {
	preset := PresetFor(depth)
	if maxSources > 0 {
		preset.MaxSources = maxSources
	}
	return State{
		RunID:      runID,
		Topic:      topic,
		Depth:      depth,
		Domains:    domains,
		MaxSources: preset.MaxSources,
		Limits:     preset,
	}
}
