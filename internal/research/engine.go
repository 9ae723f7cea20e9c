package research

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/events"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/metrics"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/runs"
)

// StageFunc transforms the pipeline state. The returned map is an optional
// structured summary attached to the stage's completed event. A stage is
// expected to catch its own recoverable failures (unreachable upstream APIs)
// and substitute fallback values; an error return aborts the whole run.
type StageFunc func(ctx context.Context, st State) (State, map[string]any, error)

// Stage is one named step of the pipeline.
type Stage struct {
	// Name is the step name carried in progress events (e.g. "search").
	Name string
	// Agent is the acting component name (e.g. "searcher").
	Agent string
	// Describe optionally builds the started-event message from the state.
	Describe func(State) string
	// Run performs the stage.
	Run StageFunc
}

// Engine executes a fixed ordered sequence of stages over a run's state,
// emitting progress events and updating the run registry.
type Engine struct {
	bus      *events.Bus
	registry *runs.Registry
	stages   []Stage
	pace     time.Duration
	log      *logger.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPace inserts a fixed delay after each stage. Used to slow demo runs
// down enough for dashboards to animate.
func WithPace(d time.Duration) EngineOption {
	return func(e *Engine) { e.pace = d }
}

// NewEngine creates an engine over the given stages in execution order.
func NewEngine(bus *events.Bus, registry *runs.Registry, stages []Stage, opts ...EngineOption) *Engine {
	e := &Engine{
		bus:      bus,
		registry: registry,
		stages:   stages,
		log:      logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs all stages sequentially over the initial state. It marks the
// run running first, then completed when every stage succeeds, or error at
// the first uncaught stage failure, in which case later stages never run.
// Designed to be launched in its own goroutine; it never panics outward.
func (e *Engine) Execute(ctx context.Context, st State) {
	runID := st.RunID
	if err := e.registry.Start(runID); err != nil {
		e.log.Error("cannot start run", logger.ErrorFields("start", err))
		return
	}

	for _, stage := range e.stages {
		startOpts := []events.EventOption{events.WithAgent(stage.Agent)}
		if stage.Describe != nil {
			startOpts = append(startOpts, events.WithMessage(stage.Describe(st)))
		}
		e.bus.Publish(events.New(runID, stage.Name, events.StatusStarted, startOpts...))

		started := time.Now()
		next, summary, err := e.runStage(ctx, stage, st)
		elapsed := time.Since(started)
		metrics.RecordStageDuration(stage.Name, elapsed)

		if err != nil {
			e.log.Error("run crashed", logger.Fields(
				logger.FieldRunID, runID,
				logger.FieldStage, stage.Name,
				logger.FieldError, err.Error(),
			))
			if regErr := e.registry.Error(runID, err.Error()); regErr != nil {
				e.log.Error("cannot record run error", logger.ErrorFields("error", regErr))
			}
			e.bus.Publish(events.New(runID, "run", events.StatusError,
				events.WithMessage(err.Error())))
			return
		}

		st = next
		completedOpts := []events.EventOption{
			events.WithAgent(stage.Agent),
			events.WithDuration(elapsed),
		}
		if summary != nil {
			completedOpts = append(completedOpts, events.WithData(summary))
		}
		e.bus.Publish(events.New(runID, stage.Name, events.StatusCompleted, completedOpts...))

		if e.pace > 0 {
			time.Sleep(e.pace)
		}
	}

	if err := e.registry.Finish(runID); err != nil {
		e.log.Error("cannot finish run", logger.ErrorFields("finish", err))
		return
	}
	e.bus.Publish(events.New(runID, "run", events.StatusCompleted,
		events.WithMessage("Run finished")))
}

// runStage invokes a stage, converting a panic into a stage error so a
// programming fault in one run cannot take the process down.
func (e *Engine) runStage(ctx context.Context, stage Stage, st State) (out State, summary map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("stage panicked", logger.Fields(
				logger.FieldStage, stage.Name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			))
			out = st
			summary = nil
			err = fmt.Errorf("stage %s panicked: %v", stage.Name, r)
		}
	}()
	return stage.Run(ctx, st)
}
