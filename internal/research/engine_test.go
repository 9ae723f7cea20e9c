package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/events"
	"github.com/markcoffee121-HSCL/CapStoneProject/internal/runs"
)

func drainEvents(sub *events.Subscription) []events.Event {
	var out []events.Event
	for {
		select {
		case ev := <-sub.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func namedStage(name string, run StageFunc) Stage {
	return Stage{Name: name, Agent: name + "-agent", Run: run}
}

func TestEngine_ExecuteHappyPath(t *testing.T) {
	bus := events.NewBus(32)
	reg := runs.NewRegistry()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	stages := []Stage{
		namedStage("plan", func(ctx context.Context, st State) (State, map[string]any, error) {
			st.Plan = []string{"step one"}
			return st, map[string]any{"steps": 1}, nil
		}),
		namedStage("search", func(ctx context.Context, st State) (State, map[string]any, error) {
			if len(st.Plan) != 1 {
				t.Error("expected plan from the previous stage to be visible")
			}
			return st, nil, nil
		}),
	}

	run := reg.Create("topic", DepthQuick)
	engine := NewEngine(bus, reg, stages)
	engine.Execute(context.Background(), NewState(run.ID, "topic", DepthQuick, nil, 0))

	got, _ := reg.Get(run.ID)
	if got.Status != runs.StatusCompleted {
		t.Errorf("expected completed run, got %q", got.Status)
	}

	evs := drainEvents(sub)
	want := []struct{ step, status string }{
		{"plan", events.StatusStarted},
		{"plan", events.StatusCompleted},
		{"search", events.StatusStarted},
		{"search", events.StatusCompleted},
		{"run", events.StatusCompleted},
	}
	if len(evs) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(evs), evs)
	}
	for i, w := range want {
		if evs[i].Step != w.step || evs[i].Status != w.status {
			t.Errorf("event %d: expected %s/%s, got %s/%s", i, w.step, w.status, evs[i].Step, evs[i].Status)
		}
	}
	// The completed event carries the stage summary.
	if evs[1].Data["steps"] != 1 {
		t.Errorf("expected summary data on completed event, got %v", evs[1].Data)
	}
}

func TestEngine_StageErrorHaltsRun(t *testing.T) {
	bus := events.NewBus(32)
	reg := runs.NewRegistry()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	laterRan := false
	stages := []Stage{
		namedStage("search", func(ctx context.Context, st State) (State, map[string]any, error) {
			return st, nil, errors.New("no providers reachable")
		}),
		namedStage("retrieve", func(ctx context.Context, st State) (State, map[string]any, error) {
			laterRan = true
			return st, nil, nil
		}),
	}

	run := reg.Create("topic", DepthStandard)
	engine := NewEngine(bus, reg, stages)
	engine.Execute(context.Background(), NewState(run.ID, "topic", DepthStandard, nil, 0))

	if laterRan {
		t.Error("stages after a failure must not run")
	}
	got, _ := reg.Get(run.ID)
	if got.Status != runs.StatusError {
		t.Errorf("expected error status, got %q", got.Status)
	}
	if got.Error != "no providers reachable" {
		t.Errorf("expected failure message recorded, got %q", got.Error)
	}

	evs := drainEvents(sub)
	last := evs[len(evs)-1]
	if last.Step != "run" || last.Status != events.StatusError {
		t.Errorf("expected terminal run/error event, got %s/%s", last.Step, last.Status)
	}
	for _, ev := range evs {
		if ev.Step == "retrieve" {
			t.Error("no events may be emitted for stages after the failure")
		}
	}
}

func TestEngine_StagePanicBecomesRunError(t *testing.T) {
	bus := events.NewBus(32)
	reg := runs.NewRegistry()

	stages := []Stage{
		namedStage("summarize", func(ctx context.Context, st State) (State, map[string]any, error) {
			panic("nil note")
		}),
	}

	run := reg.Create("topic", DepthQuick)
	engine := NewEngine(bus, reg, stages)
	engine.Execute(context.Background(), NewState(run.ID, "topic", DepthQuick, nil, 0))

	got, _ := reg.Get(run.ID)
	if got.Status != runs.StatusError {
		t.Errorf("expected error status after panic, got %q", got.Status)
	}
	if got.Error == "" {
		t.Error("expected panic to be captured in the run error")
	}
}

func TestEngine_DescribeFeedsStartedMessage(t *testing.T) {
	bus := events.NewBus(32)
	reg := runs.NewRegistry()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	stages := []Stage{{
		Name:     "plan",
		Agent:    "planner",
		Describe: func(st State) string { return "Planning: " + st.Topic },
		Run: func(ctx context.Context, st State) (State, map[string]any, error) {
			return st, nil, nil
		},
	}}

	run := reg.Create("fusion power", DepthQuick)
	engine := NewEngine(bus, reg, stages)
	engine.Execute(context.Background(), NewState(run.ID, "fusion power", DepthQuick, nil, 0))

	evs := drainEvents(sub)
	if evs[0].Message != "Planning: fusion power" {
		t.Errorf("expected describe message, got %q", evs[0].Message)
	}
	if evs[0].Agent != "planner" {
		t.Errorf("expected planner agent, got %q", evs[0].Agent)
	}
}

func TestEngine_PaceDelaysBetweenStages(t *testing.T) {
	bus := events.NewBus(32)
	reg := runs.NewRegistry()

	stages := []Stage{
		namedStage("a", func(ctx context.Context, st State) (State, map[string]any, error) { return st, nil, nil }),
		namedStage("b", func(ctx context.Context, st State) (State, map[string]any, error) { return st, nil, nil }),
	}

	run := reg.Create("topic", DepthQuick)
	engine := NewEngine(bus, reg, stages, WithPace(30*time.Millisecond))

	start := time.Now()
	engine.Execute(context.Background(), NewState(run.ID, "topic", DepthQuick, nil, 0))
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("expected at least 60ms with pacing, took %v", elapsed)
	}
}

func TestEngine_UnknownRunIDDoesNothing(t *testing.T) {
	bus := events.NewBus(32)
	reg := runs.NewRegistry()
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	called := false
	stages := []Stage{
		namedStage("plan", func(ctx context.Context, st State) (State, map[string]any, error) {
			called = true
			return st, nil, nil
		}),
	}

	engine := NewEngine(bus, reg, stages)
	engine.Execute(context.Background(), NewState("ghost", "topic", DepthQuick, nil, 0))

	if called {
		t.Error("stages must not run for an unregistered run")
	}
	if evs := drainEvents(sub); len(evs) != 0 {
		t.Errorf("expected no events, got %d", len(evs))
	}
}
