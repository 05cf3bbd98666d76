package unlock

import (
	"fmt"

	"idlecore/eventbus"
)

// Target binds a node reference to its parsed unlock condition. Callers
// (the engine, which alone can walk a Game Definition) build the target
// list once at construction time, in depth-first layer→sublayer→section→
// element enumeration order.
type Target struct {
	Ref       string
	Condition Node
}

// Transition records a single locked→unlocked flip within one evaluation
// pass.
type Transition struct {
	Ref string
}

// Summary is the result of one evaluateAll pass.
type Summary struct {
	UnlockedRefs []string
	Unlocked     map[string]bool
	Transitions  []Transition
}

// Evaluator holds the monotone unlocked-by-ref cache and the enumeration
// order targets were constructed with.
type Evaluator struct {
	targets  []Target
	unlocked map[string]bool
	order    []string
}

// NewEvaluator initializes unlockedByRef=false for every target.
func NewEvaluator(targets []Target) *Evaluator {
	e := &Evaluator{
		targets:  targets,
		unlocked: make(map[string]bool, len(targets)),
		order:    make([]string, 0, len(targets)),
	}
	for _, t := range targets {
		e.unlocked[t.Ref] = false
		e.order = append(e.order, t.Ref)
	}
	return e
}

// IsUnlocked reports the current cached unlock state for ref. An unknown
// ref reports false (locked).
func (e *Evaluator) IsUnlocked(ref string) bool {
	if e == nil {
		return false
	}
	return e.unlocked[ref]
}

// EvaluateAll fails fast unless phase is "end-of-tick". It walks targets in
// enumeration order, evaluating only still-locked entries; newly-true
// entries flip to true permanently and publish UNLOCKED on bus.
func (e *Evaluator) EvaluateAll(phase string, state StateReader, bus *eventbus.Bus) (Summary, error) {
	if phase != "end-of-tick" {
		return Summary{}, fmt.Errorf("unlock: evaluateAll called outside end-of-tick phase (got %q)", phase)
	}

	summary := Summary{Unlocked: make(map[string]bool, len(e.targets))}

	for _, t := range e.targets {
		if e.unlocked[t.Ref] {
			summary.Unlocked[t.Ref] = true
			summary.UnlockedRefs = append(summary.UnlockedRefs, t.Ref)
			continue
		}
		if Evaluate(t.Condition, state) {
			e.unlocked[t.Ref] = true
			summary.Unlocked[t.Ref] = true
			summary.UnlockedRefs = append(summary.UnlockedRefs, t.Ref)
			summary.Transitions = append(summary.Transitions, Transition{Ref: t.Ref})
			if bus != nil {
				bus.Publish(eventbus.Event{
					Type:    "UNLOCKED",
					Payload: map[string]any{"targetRef": t.Ref},
					Phase:   "unlock-evaluation",
					Source:  "UnlockEvaluator",
				})
			}
		} else {
			summary.Unlocked[t.Ref] = false
		}
	}

	return summary, nil
}

// EvaluateProgressAll returns a ref→progress map for every target, pure
// with respect to the store.
func (e *Evaluator) EvaluateProgressAll(state StateReader) map[string]float64 {
	out := make(map[string]float64, len(e.targets))
	for _, t := range e.targets {
		if e.unlocked[t.Ref] {
			out[t.Ref] = 1
			continue
		}
		out[t.Ref] = EstimateProgress(t.Condition, state)
	}
	return out
}
