package modifier

import "testing"

func TestResolveUnindexedReturnsBase(t *testing.T) {
	r := New(nil)
	if got := r.Resolve("layer:idle", "gold", 42); got != 42 {
		t.Fatalf("Resolve unindexed = %v, want 42", got)
	}
}

func TestResolveComposesInDeclarationOrder(t *testing.T) {
	add10 := func(base, threshold float64) float64 { return base + 10 }
	mul2 := func(base, threshold float64) float64 { return base * 2 }
	r := New([]Softcap{
		{TargetRef: "layer:idle", Key: "gold", Fn: add10},
		{TargetRef: "layer:idle", Key: "gold", Fn: mul2},
	})
	got := r.Resolve("layer:idle", "gold", 5)
	if got != 30 { // (5+10)*2
		t.Fatalf("Resolve = %v, want 30", got)
	}
}

func TestIndexSkipsInvalidEntries(t *testing.T) {
	r := New([]Softcap{
		{TargetRef: "not-a-ref", Key: "gold", Fn: DefaultSoftcap},
		{TargetRef: "layer:idle", Key: "", Fn: DefaultSoftcap},
		{TargetRef: "layer:idle", Key: "gold", Fn: nil},
	})
	if got := r.Resolve("layer:idle", "gold", 7); got != 7 {
		t.Fatalf("Resolve = %v, want 7 (no valid entries indexed)", got)
	}
}

func TestDefaultSoftcapBelowThresholdPassesThrough(t *testing.T) {
	if got := DefaultSoftcap(5, 10); got != 5 {
		t.Fatalf("DefaultSoftcap below threshold = %v, want 5", got)
	}
}

func TestDefaultSoftcapAboveThresholdCompresses(t *testing.T) {
	got := DefaultSoftcap(14, 10) // 10 + sqrt(4) = 12
	if got != 12 {
		t.Fatalf("DefaultSoftcap above threshold = %v, want 12", got)
	}
}
