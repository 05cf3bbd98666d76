package layer

import (
	"context"
	"strings"

	"idlecore/eventbus"
	"idlecore/gamedef"
	"idlecore/logging"
	"idlecore/statestore"
)

// Preview is the sanitized, in-order description of what a reset would do
// to a layer, without executing it.
type Preview struct {
	LayerID      string
	KeepPaths    []string
	HasKeepRules bool
}

// ExecuteRequest names the layer to reset and an optional human-facing
// reason surfaced on the resulting event.
type ExecuteRequest struct {
	LayerID string
	Reason  string
}

// ResetService performs layer resets: snapshot current canonical state,
// rebuild a baseline from the definition's initial state, copy forward any
// keep paths, and atomically replace the store's canonical namespace. From
// an observer's perspective a reset is all-or-nothing; no intermediate
// state is ever visible.
type ResetService struct {
	store        *statestore.Store
	bus          *eventbus.Bus
	publisher    logging.Publisher
	initialState map[string]any
	keepByLayer  map[string][]string
}

// NewResetService builds a reset service from the definition's layer list
// (for each layer's reset.keep rule) and a deep-cloned copy of the
// definition's initial state. publisher receives a structured log event
// for every executed reset; a nil publisher is treated as
// logging.NopPublisher so callers that never wire one pay no logging cost.
func NewResetService(store *statestore.Store, bus *eventbus.Bus, initialState map[string]any, layers []gamedef.Layer, publisher logging.Publisher) *ResetService {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	keepByLayer := make(map[string][]string, len(layers))
	for _, l := range layers {
		if l.Reset == nil {
			continue
		}
		keepByLayer[l.ID] = append([]string(nil), l.Reset.Keep...)
	}
	return &ResetService{
		store:        store,
		bus:          bus,
		publisher:    publisher,
		initialState: cloneTree(initialState),
		keepByLayer:  keepByLayer,
	}
}

// Preview reports what Execute would keep for layerID without mutating
// anything.
func (s *ResetService) Preview(layerID string) Preview {
	keep := s.keepByLayer[layerID]
	return Preview{
		LayerID:      layerID,
		KeepPaths:    append([]string(nil), keep...),
		HasKeepRules: len(keep) > 0,
	}
}

// Execute performs the reset for req.LayerID and publishes
// LAYER_RESET_EXECUTED. It never fails on account of missing keep paths —
// a keep path absent from the current snapshot is simply not copied
// forward.
func (s *ResetService) Execute(req ExecuteRequest) error {
	snapshot := s.store.Snapshot()
	baseline := cloneTree(s.initialState)

	var preserved []string
	for _, keepPath := range s.keepByLayer[req.LayerID] {
		value := snapshot.Get(keepPath)
		if statestore.IsUndefined(value) {
			continue
		}
		baseline = assignPath(baseline, keepPath, value)
		preserved = append(preserved, keepPath)
	}

	s.store.ReplaceCanonical(baseline)

	reason := req.Reason
	if reason == "" {
		reason = "reset-executed"
	}
	preservedAny := make([]any, len(preserved))
	for i, p := range preserved {
		preservedAny[i] = p
	}

	if err := s.bus.Publish(eventbus.Event{
		Type: "LAYER_RESET_EXECUTED",
		Payload: map[string]any{
			"layerId":       req.LayerID,
			"preservedKeys": preservedAny,
			"reason":        reason,
		},
		Phase:  "event-dispatch",
		Source: "LayerResetService",
	}); err != nil {
		return err
	}

	s.publisher.Publish(context.Background(), logging.Event{
		Type:     "LAYER_RESET_EXECUTED",
		Actor:    logging.EntityRef{ID: req.LayerID, Kind: logging.NodeKindLayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryReset,
		Payload: map[string]any{
			"preservedKeys": preservedAny,
			"reason":        reason,
		},
	})
	return nil
}

func cloneTree(tree map[string]any) map[string]any {
	if tree == nil {
		return make(map[string]any)
	}
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneTree(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func assignPath(tree map[string]any, path string, value any) map[string]any {
	segments := splitDotPath(path)
	if len(segments) == 0 {
		return tree
	}
	return assignSegments(tree, segments, value)
}

func assignSegments(tree map[string]any, segments []string, value any) map[string]any {
	if tree == nil {
		tree = make(map[string]any)
	}
	out := cloneTree(tree)
	head, rest := segments[0], segments[1:]
	if len(rest) == 0 {
		out[head] = cloneValue(value)
		return out
	}
	child, _ := out[head].(map[string]any)
	out[head] = assignSegments(child, rest, value)
	return out
}

func splitDotPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
