package engine

import "testing"

func TestPhaseCursorEntersSequentially(t *testing.T) {
	c := newPhaseCursor()
	order := []Phase{PhaseInput, PhaseTime, PhaseLayerUpdate, PhaseEventDispatch, PhaseUnlockEvaluation, PhaseRender}
	for _, p := range order {
		if err := c.enter(p); err != nil {
			t.Fatalf("enter(%v): %v", p, err)
		}
	}
}

func TestPhaseCursorRejectsSkippedPhase(t *testing.T) {
	c := newPhaseCursor()
	if err := c.enter(PhaseTime); err == nil {
		t.Fatal("expected fatal error entering PhaseTime before PhaseInput")
	}
}

func TestPhaseCursorRejectsRepeatedPhase(t *testing.T) {
	c := newPhaseCursor()
	if err := c.enter(PhaseInput); err != nil {
		t.Fatalf("enter(PhaseInput): %v", err)
	}
	if err := c.enter(PhaseInput); err == nil {
		t.Fatal("expected fatal error re-entering the same phase")
	}
}

func TestPhaseCursorRejectsBackwardsPhase(t *testing.T) {
	c := newPhaseCursor()
	_ = c.enter(PhaseInput)
	_ = c.enter(PhaseTime)
	if err := c.enter(PhaseInput); err == nil {
		t.Fatal("expected fatal error re-entering an earlier phase")
	}
}

func TestPhaseStringOutOfRange(t *testing.T) {
	if got := Phase(-1).String(); got != "none" {
		t.Fatalf("Phase(-1).String() = %q, want %q", got, "none")
	}
	if got := phaseCount.String(); got != "none" {
		t.Fatalf("phaseCount.String() = %q, want %q", got, "none")
	}
}

func TestFatalErrorMessage(t *testing.T) {
	err := &FatalError{Code: "SOME_CODE", Message: "detail"}
	if err.Error() == "" {
		t.Fatal("FatalError.Error() returned empty string")
	}
}
