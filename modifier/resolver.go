// Package modifier indexes content-declared softcaps by target/key and
// resolves the effective value of a base number through them.
package modifier

import (
	"math"

	"idlecore/noderef"
)

// Softcap is one designer-authored compressing rule: applied to baseValue
// for (targetRef, key) above Threshold via Fn.
type Softcap struct {
	TargetRef string
	Key       string
	Threshold float64
	Fn        Func
}

// Func is the injected pure softcap utility (out of core scope per spec).
// It composes a base value above a threshold into a compressed value.
type Func func(base, threshold float64) float64

type pairKey struct {
	ref string
	key string
}

// Resolver indexes softcaps by normalized (targetRef, key) pair.
type Resolver struct {
	index map[pairKey][]Softcap
}

// New indexes a flat softcap list. Entries with an unparseable target
// reference or a nil Fn are skipped at index time, never at resolve time.
func New(entries []Softcap) *Resolver {
	r := &Resolver{index: make(map[pairKey][]Softcap)}
	for _, e := range entries {
		if e.Fn == nil || e.Key == "" {
			continue
		}
		canonical, err := noderef.Normalize(e.TargetRef)
		if err != nil {
			continue
		}
		e.TargetRef = canonical
		k := pairKey{ref: canonical, key: e.Key}
		r.index[k] = append(r.index[k], e)
	}
	return r
}

// Resolve composes every softcap registered for (targetRef, key) onto
// baseValue, in declaration order. An unindexed pair returns baseValue
// untouched.
func (r *Resolver) Resolve(targetRef, key string, baseValue float64) float64 {
	canonical, err := noderef.Normalize(targetRef)
	if err != nil {
		return baseValue
	}
	entries, ok := r.index[pairKey{ref: canonical, key: key}]
	if !ok {
		return baseValue
	}
	value := baseValue
	for _, e := range entries {
		value = e.Fn(value, e.Threshold)
	}
	return value
}

// DefaultSoftcap is a stdlib reference implementation of a monotone
// compressing function: values at or below threshold pass through
// unchanged; values above threshold compress via a diminishing-returns
// square-root taper. The real softcap utility is an external, injected
// collaborator per spec scope; the engine uses this function whenever its
// Config.SoftcapFn is nil.
func DefaultSoftcap(base, threshold float64) float64 {
	if threshold <= 0 || base <= threshold {
		return base
	}
	excess := base - threshold
	return threshold + math.Sqrt(excess)
}
