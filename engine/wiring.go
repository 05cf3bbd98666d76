package engine

import (
	"idlecore/eventbus"
	"idlecore/intent"
	"idlecore/layer"
	"idlecore/noderef"
)

// wireInitialize performs the three fixed wiring steps every engine
// instance needs: a built-in REQUEST_LAYER_RESET intent handler, the reset
// service's subscription to LAYER_RESET_REQUESTED, and per-layer event
// subscriptions driven by the event catalog's declared consumers.
func (e *Engine) wireInitialize() {
	e.router.Register("REQUEST_LAYER_RESET", e.handleRequestLayerReset)

	tok := e.bus.Subscribe("LAYER_RESET_REQUESTED", e.onLayerResetRequested, "LayerResetService")
	e.subscriptions = append(e.subscriptions, tok)

	for _, l := range e.layers {
		for _, eventType := range e.eventCat.AllTypes() {
			entry, ok := e.eventCat.Lookup(eventType)
			if !ok {
				continue
			}
			if !containsString(entry.Consumers, l.Type()) {
				continue
			}
			instance := l
			subTok := e.bus.Subscribe(eventType, instance.OnEvent, instance.Type())
			e.subscriptions = append(e.subscriptions, subTok)
		}
	}
}

// handleRequestLayerReset publishes LAYER_RESET_REQUESTED and returns the
// reset preview, per spec.md §4.10 wiring step (i).
func (e *Engine) handleRequestLayerReset(i intent.Intent) any {
	layerID := layerIDFromPayload(i.Payload)
	reason, _ := i.Payload["reason"].(string)

	_ = e.bus.Publish(eventbus.Event{
		Type: "LAYER_RESET_REQUESTED",
		Payload: map[string]any{
			"layerId":     layerID,
			"reason":      reason,
			"sourceIntent": i.Type,
		},
		Phase:  "input",
		Source: "engine",
	})

	return e.resets.Preview(layerID)
}

func (e *Engine) onLayerResetRequested(event eventbus.Event) {
	layerID, _ := event.Payload["layerId"].(string)
	reason, _ := event.Payload["reason"].(string)
	_ = e.resets.Execute(layer.ExecuteRequest{LayerID: layerID, Reason: reason})
}

// layerIDFromPayload returns an intent's direct layerId field when it is a
// non-empty string, falling back to the layer segment of its targetRef node
// reference; it returns "" when neither yields a layer id.
func layerIDFromPayload(payload map[string]any) string {
	if id, ok := payload["layerId"].(string); ok && id != "" {
		return id
	}
	ref, ok := payload["targetRef"].(string)
	if !ok || ref == "" {
		return ""
	}
	parsed, err := noderef.Parse(ref)
	if err != nil {
		return ""
	}
	return parsed.Layer
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
