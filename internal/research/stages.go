package research

import (
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/artifacts"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/events"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/llm"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/notify"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/search"
)

// Stages holds the collaborators shared by the pipeline stages. Every
// external dependency goes through a narrow contract so tests can stub it.
type Stages struct {
	Bus       *events.Bus
	LLM       llm.Client
	Model     string
	Chain     *search.Chain
	ChainName string // preferred provider name, for report footers
	Artifacts *artifacts.Store
	Webhook   *notify.Webhook

	log *logger.Logger
}

// NewStages wires the stage collaborators.
func NewStages(bus *events.Bus, client llm.Client, model string, chain *search.Chain, chainName string, store *artifacts.Store, webhook *notify.Webhook) *Stages {
	return &Stages{
		Bus:       bus,
		LLM:       client,
		Model:     model,
		Chain:     chain,
		ChainName: chainName,
		Artifacts: store,
		Webhook:   webhook,
		log:       logger.WithComponent("stages"),
	}
}

// All returns the pipeline stages in execution order.
func (s *Stages) All() []Stage {
	return []Stage{
		s.Planner(),
		s.Searcher(),
		s.Retriever(),
		s.Summarizer(),
		s.Synthesizer(),
		s.Critic(),
		s.Presenter(),
	}
}

// llmEnabled reports whether the generative backend can be called.
func (s *Stages) llmEnabled() bool {
	return s.LLM != nil && s.LLM.Enabled()
}
