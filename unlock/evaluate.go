package unlock

import "math"

// StateReader is the minimal read surface the evaluator needs over a
// canonical state snapshot. statestore.Store and statestore.Snapshot both
// satisfy it.
type StateReader interface {
	Get(path string) any
}

// Evaluate performs pure truth evaluation of ast against state. Missing
// paths or wrong-typed values evaluate to false for every leaf that reads
// state; evaluation never fails.
func Evaluate(node Node, state StateReader) bool {
	switch n := node.(type) {
	case Always:
		return n.Value
	case ResourceGte:
		v, ok := numberAt(state, n.Path)
		return ok && v >= n.Value
	case Compare:
		v, ok := numberAt(state, n.Path)
		if !ok {
			return false
		}
		return applyOp(n.Op, v, n.Value)
	case Flag:
		v := state.Get(n.Path)
		b, ok := v.(bool)
		return ok && b
	case All:
		for _, c := range n.Children {
			if !Evaluate(c, state) {
				return false
			}
		}
		return true
	case Any:
		for _, c := range n.Children {
			if Evaluate(c, state) {
				return true
			}
		}
		return false
	case Not:
		return !Evaluate(n.Child, state)
	default:
		return false
	}
}

func applyOp(op CompareOp, current, target float64) bool {
	switch op {
	case OpGt:
		return current > target
	case OpGte:
		return current >= target
	case OpLt:
		return current < target
	case OpLte:
		return current <= target
	case OpEq:
		return current == target
	case OpNeq:
		return current != target
	default:
		return false
	}
}

func numberAt(state StateReader, path string) (float64, bool) {
	v := state.Get(path)
	switch n := v.(type) {
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
