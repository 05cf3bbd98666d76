package unlock

import "fmt"

// Code enumerates the distinct ways a raw condition object can fail to
// parse into an AST.
type Code string

const (
	CodeNotObject       Code = "not-object"
	CodeNoOperator      Code = "no-operator"
	CodeMultipleOps     Code = "multiple-operators"
	CodeUnknownOperator Code = "unknown-operator"
	CodeBadPayload      Code = "bad-payload"
	CodeEmptyChildren   Code = "empty-children"
	CodeBadCompareOp    Code = "bad-compare-op"
)

// Error reports a single condition parse failure.
type Error struct {
	Code Code
	Op   string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("unlock: %s", e.Code)
	}
	return fmt.Sprintf("unlock: %s (op=%s)", e.Code, e.Op)
}

var compareOps = map[string]CompareOp{
	"gt": OpGt, "gte": OpGte, "lt": OpLt, "lte": OpLte, "eq": OpEq, "neq": OpNeq,
}

// ParseCondition parses a raw, already-JSON-decoded condition object
// (map[string]any as produced by encoding/json) into an AST. The input must
// have exactly one operator key; unknown operators, malformed payloads,
// empty all/any arrays, and invalid compare ops each return a distinct
// code via *Error.
func ParseCondition(raw any) (Node, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &Error{Code: CodeNotObject}
	}
	if len(obj) == 0 {
		return nil, &Error{Code: CodeNoOperator}
	}
	if len(obj) > 1 {
		return nil, &Error{Code: CodeMultipleOps}
	}

	var op string
	var payload any
	for k, v := range obj {
		op, payload = k, v
	}

	switch op {
	case "always":
		b, ok := payload.(bool)
		if !ok {
			return nil, &Error{Code: CodeBadPayload, Op: op}
		}
		return Always{Value: b}, nil

	case "resourceGte":
		path, value, ok := pathNumberPayload(payload)
		if !ok {
			return nil, &Error{Code: CodeBadPayload, Op: op}
		}
		return ResourceGte{Path: path, Value: value}, nil

	case "compare":
		m, ok := payload.(map[string]any)
		if !ok {
			return nil, &Error{Code: CodeBadPayload, Op: op}
		}
		path, ok := m["path"].(string)
		if !ok || path == "" {
			return nil, &Error{Code: CodeBadPayload, Op: op}
		}
		rawOp, ok := m["op"].(string)
		if !ok {
			return nil, &Error{Code: CodeBadPayload, Op: op}
		}
		cmpOp, ok := compareOps[rawOp]
		if !ok {
			return nil, &Error{Code: CodeBadCompareOp, Op: op}
		}
		value, ok := asFloat(m["value"])
		if !ok {
			return nil, &Error{Code: CodeBadPayload, Op: op}
		}
		return Compare{Path: path, Op: cmpOp, Value: value}, nil

	case "flag":
		path, ok := payload.(string)
		if !ok || path == "" {
			return nil, &Error{Code: CodeBadPayload, Op: op}
		}
		return Flag{Path: path}, nil

	case "all":
		children, err := parseChildren(payload, op)
		if err != nil {
			return nil, err
		}
		return All{Children: children}, nil

	case "any":
		children, err := parseChildren(payload, op)
		if err != nil {
			return nil, err
		}
		return Any{Children: children}, nil

	case "not":
		child, err := ParseCondition(payload)
		if err != nil {
			return nil, err
		}
		return Not{Child: child}, nil

	default:
		return nil, &Error{Code: CodeUnknownOperator, Op: op}
	}
}

func parseChildren(payload any, op string) ([]Node, error) {
	list, ok := payload.([]any)
	if !ok {
		return nil, &Error{Code: CodeBadPayload, Op: op}
	}
	if len(list) == 0 {
		return nil, &Error{Code: CodeEmptyChildren, Op: op}
	}
	out := make([]Node, 0, len(list))
	for _, item := range list {
		child, err := ParseCondition(item)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

func pathNumberPayload(payload any) (string, float64, bool) {
	m, ok := payload.(map[string]any)
	if !ok {
		return "", 0, false
	}
	path, ok := m["path"].(string)
	if !ok || path == "" {
		return "", 0, false
	}
	value, ok := asFloat(m["value"])
	if !ok {
		return "", 0, false
	}
	return path, value, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
