package events

import (
	"fmt"
	"testing"
)

func TestBus_SubscribeUnsubscribe(t *testing.T) {
	bus := NewBus(4)

	sub := bus.Subscribe()
	if sub.ID() == "" {
		t.Error("expected subscription to have an ID")
	}
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}

	bus.Unsubscribe(sub)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", bus.SubscriberCount())
	}

	// Unsubscribing again must be a no-op.
	bus.Unsubscribe(sub)
	bus.Unsubscribe(nil)
	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}

func TestBus_PublishDeliversInOrder(t *testing.T) {
	bus := NewBus(8)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		bus.Publish(New("run-1", fmt.Sprintf("step-%d", i), StatusStarted))
	}

	for i := 0; i < 5; i++ {
		select {
		case ev := <-sub.Events():
			want := fmt.Sprintf("step-%d", i)
			if ev.Step != want {
				t.Errorf("event %d: expected step %q, got %q", i, want, ev.Step)
			}
		default:
			t.Fatalf("expected event %d to be buffered", i)
		}
	}
}

func TestBus_PublishDropsNewestWhenFull(t *testing.T) {
	bus := NewBus(3)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	// Publish more than the queue holds. The overflow is dropped, not the
	// oldest entries.
	for i := 0; i < 6; i++ {
		bus.Publish(New("run-1", fmt.Sprintf("step-%d", i), StatusStarted))
	}

	var got []string
	for {
		select {
		case ev := <-sub.Events():
			got = append(got, ev.Step)
			continue
		default:
		}
		break
	}

	want := []string{"step-0", "step-1", "step-2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d buffered events, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestBus_SlowSubscriberDoesNotAffectOthers(t *testing.T) {
	bus := NewBus(2)
	slow := bus.Subscribe()
	defer bus.Unsubscribe(slow)

	fast := bus.Subscribe()
	defer bus.Unsubscribe(fast)

	// The slow subscriber never drains; the fast one drains after each
	// publish and must see everything.
	var fastGot []string
	for i := 0; i < 5; i++ {
		bus.Publish(New("run-1", fmt.Sprintf("step-%d", i), StatusCompleted))
		select {
		case ev := <-fast.Events():
			fastGot = append(fastGot, ev.Step)
		default:
			t.Fatalf("fast subscriber missed event %d", i)
		}
	}

	if len(fastGot) != 5 {
		t.Errorf("expected fast subscriber to receive 5 events, got %d", len(fastGot))
	}
	if len(slow.Events()) != 2 {
		t.Errorf("expected slow subscriber queue to hold 2 events, got %d", len(slow.Events()))
	}
}

func TestBus_DefaultBuffer(t *testing.T) {
	bus := NewBus(0)
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	if cap(sub.ch) != DefaultSubscriberBuffer {
		t.Errorf("expected default buffer %d, got %d", DefaultSubscriberBuffer, cap(sub.ch))
	}
}

func TestEvent_New(t *testing.T) {
	ev := New("run-9", "plan", StatusStarted,
		WithAgent("planner"),
		WithMessage("Planning: topic"),
		WithData(map[string]any{"steps": 3}),
	)

	if ev.EventID == "" {
		t.Error("expected event ID to be set")
	}
	if ev.RunID != "run-9" || ev.Step != "plan" || ev.Status != StatusStarted {
		t.Errorf("unexpected event identity: %+v", ev)
	}
	if ev.Agent != "planner" {
		t.Errorf("expected agent 'planner', got %q", ev.Agent)
	}
	if ev.Data["steps"] != 3 {
		t.Errorf("expected data steps=3, got %v", ev.Data["steps"])
	}
	if ev.TS.IsZero() {
		t.Error("expected timestamp to be set")
	}
}
