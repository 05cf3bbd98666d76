package statestore

import "testing"

func TestSetAndGet(t *testing.T) {
	s := New(map[string]any{"resources": map[string]any{"xp": 0.0}})
	if err := s.Set("resources.xp", 5.0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got := s.Get("resources.xp")
	if got != 5.0 {
		t.Fatalf("Get = %v, want 5.0", got)
	}
}

func TestGetMissingReturnsUndefined(t *testing.T) {
	s := New(nil)
	got := s.Get("resources.xp")
	if !IsUndefined(got) {
		t.Fatalf("Get missing = %v, want Undefined", got)
	}
}

func TestPatchRequiresAbsentOrObject(t *testing.T) {
	s := New(map[string]any{"flags": map[string]any{"seen": true}})
	if err := s.Patch("flags", map[string]any{"newFlag": true}); err != nil {
		t.Fatalf("Patch on object: %v", err)
	}
	if got := s.Get("flags.newFlag"); got != true {
		t.Fatalf("Get after patch = %v", got)
	}

	if err := s.Set("scalar", 42); err != nil {
		t.Fatalf("Set scalar: %v", err)
	}
	if err := s.Patch("scalar", map[string]any{"x": 1}); err == nil {
		t.Fatalf("Patch on scalar expected error, got nil")
	}
}

func TestDerivedIsolation(t *testing.T) {
	s := New(nil)
	if err := s.Set("derived", "x"); err == nil {
		t.Fatalf("Set(\"derived\", ...) expected error")
	}
	if err := s.Set("derived.unlocks", "x"); err == nil {
		t.Fatalf("Set(\"derived.unlocks\", ...) expected error")
	}
	if err := s.Patch("derived.unlocks", map[string]any{"a": 1}); err == nil {
		t.Fatalf("Patch into derived expected error")
	}

	if err := s.SetDerived("unlocks.unlockedRefs", []any{"layer:idle"}); err != nil {
		t.Fatalf("SetDerived: %v", err)
	}
	got := s.Get("derived.unlocks.unlockedRefs")
	list, ok := got.([]any)
	if !ok || len(list) != 1 || list[0] != "layer:idle" {
		t.Fatalf("Get derived = %v", got)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New(map[string]any{"resources": map[string]any{"xp": 1.0}})
	snap := s.Snapshot()
	inner := snap.Canonical["resources"].(map[string]any)
	inner["xp"] = 999.0

	if got := s.Get("resources.xp"); got != 1.0 {
		t.Fatalf("mutating snapshot leaked into store: Get = %v", got)
	}
}

func TestReplaceCanonicalSwapsWholeTreeAndClonesInput(t *testing.T) {
	s := New(map[string]any{"resources": map[string]any{"xp": 5.0}})
	next := map[string]any{"resources": map[string]any{"xp": 0.0}}
	s.ReplaceCanonical(next)

	if got := s.Get("resources.xp"); got != 0.0 {
		t.Fatalf("Get after ReplaceCanonical = %v, want 0.0", got)
	}

	next["resources"].(map[string]any)["xp"] = 999.0
	if got := s.Get("resources.xp"); got != 0.0 {
		t.Fatalf("store retained caller reference after ReplaceCanonical: Get = %v", got)
	}
}

func TestSetDoesNotRetainCallerReference(t *testing.T) {
	s := New(nil)
	payload := map[string]any{"a": 1}
	if err := s.Set("thing", payload); err != nil {
		t.Fatalf("Set: %v", err)
	}
	payload["a"] = 2
	if got := s.Get("thing.a"); got != 1 {
		t.Fatalf("store retained caller reference: Get = %v", got)
	}
}
