package unlock

import (
	"testing"

	"idlecore/eventbus"
)

func TestEvaluatorMonotoneAndTransitions(t *testing.T) {
	targets := []Target{
		{Ref: "layer:idle/sublayer:main/section:jobs/element:always-on", Condition: Always{Value: true}},
		{Ref: "layer:idle/sublayer:main/section:jobs/element:xp-gated", Condition: ResourceGte{Path: "resources.xp", Value: 1}},
	}
	ev := NewEvaluator(targets)
	bus := eventbus.New(eventbus.Config{})

	state := fakeState{"resources.xp": 0.0}
	summary, err := ev.EvaluateAll("end-of-tick", state, bus)
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(summary.Transitions) != 1 || summary.Transitions[0].Ref != targets[0].Ref {
		t.Fatalf("tick1 transitions = %+v", summary.Transitions)
	}

	state = fakeState{"resources.xp": 1.0}
	summary, err = ev.EvaluateAll("end-of-tick", state, bus)
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(summary.Transitions) != 1 || summary.Transitions[0].Ref != targets[1].Ref {
		t.Fatalf("tick2 transitions = %+v, want xp-gated", summary.Transitions)
	}
	if !summary.Unlocked[targets[1].Ref] {
		t.Fatal("xp-gated should be unlocked after tick2")
	}

	bus.DispatchQueued()

	// Regression: dropping xp back to 0 must not re-lock (monotonicity).
	state = fakeState{"resources.xp": 0.0}
	summary, err = ev.EvaluateAll("end-of-tick", state, bus)
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(summary.Transitions) != 0 {
		t.Fatalf("tick3 should have no new transitions, got %+v", summary.Transitions)
	}
	if !summary.Unlocked[targets[1].Ref] {
		t.Fatal("xp-gated must remain unlocked (monotone)")
	}
}

func TestEvaluateAllRequiresEndOfTickPhase(t *testing.T) {
	ev := NewEvaluator(nil)
	if _, err := ev.EvaluateAll("input", fakeState{}, nil); err == nil {
		t.Fatal("expected error when phase != end-of-tick")
	}
}

func TestEvaluatorPublishesUnlockedEvent(t *testing.T) {
	targets := []Target{{Ref: "layer:idle", Condition: Always{Value: true}}}
	ev := NewEvaluator(targets)
	bus := eventbus.New(eventbus.Config{})
	delivered := 0
	bus.Subscribe("UNLOCKED", func(e eventbus.Event) {
		delivered++
		if e.Payload["targetRef"] != "layer:idle" {
			t.Fatalf("unexpected payload: %+v", e.Payload)
		}
	}, "")

	if _, err := ev.EvaluateAll("end-of-tick", fakeState{}, bus); err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	bus.DispatchQueued()
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}
}

func TestEvaluateProgressAllPure(t *testing.T) {
	targets := []Target{
		{Ref: "layer:idle/element:a", Condition: ResourceGte{Path: "resources.xp", Value: 10}},
	}
	ev := NewEvaluator(targets)
	state := fakeState{"resources.xp": 5.0}
	progress := ev.EvaluateProgressAll(state)
	if progress[targets[0].Ref] != 0.5 {
		t.Fatalf("progress = %v, want 0.5", progress[targets[0].Ref])
	}
}
