package layer

import (
	"fmt"
	"strings"

	"idlecore/eventbus"
	"idlecore/intent"
	"idlecore/modifier"
	"idlecore/statestore"
)

// Context is the host surface handed to a layer instance at Init: a scoped
// event bus facade, a scoped state facade, handles to the modifier
// resolver and the reset service, and intent-handler registration so a
// layer can claim the intent types routed to it.
type Context struct {
	layerID   string
	bus       *eventbus.Bus
	store     *statestore.Store
	modifiers *modifier.Resolver
	resets    *ResetService
	router    *intent.Router
}

// NewContext builds the per-layer host context for layerID.
func NewContext(layerID string, bus *eventbus.Bus, store *statestore.Store, modifiers *modifier.Resolver, resets *ResetService, router *intent.Router) *Context {
	return &Context{layerID: layerID, bus: bus, store: store, modifiers: modifiers, resets: resets, router: router}
}

// RegisterIntentHandler binds handler to intentType on the shared router.
// Per spec.md §4.10's wiring note, only handlers registered this way (by
// the engine itself for REQUEST_LAYER_RESET, or by a layer for whatever
// types its content registers) make an otherwise-cataloged intent
// routable; an intent type with no registered handler always routes to
// INTENT_HANDLER_MISSING.
func (c *Context) RegisterIntentHandler(intentType string, handler intent.Handler) {
	c.router.Register(intentType, handler)
}

// Publish forwards to the shared event bus unscoped; any layer may publish
// any catalog event, subject to the bus's own phase/catalog validation.
func (c *Context) Publish(event eventbus.Event) error {
	return c.bus.Publish(event)
}

// Subscribe registers handler for eventType, scoped to this layer's id for
// bookkeeping (teardown on Destroy is the caller's responsibility via the
// returned token).
func (c *Context) Subscribe(eventType string, handler eventbus.Handler) eventbus.Token {
	return c.bus.Subscribe(eventType, handler, c.layerID)
}

// Unsubscribe releases a subscription previously returned by Subscribe.
func (c *Context) Unsubscribe(token eventbus.Token) bool {
	return c.bus.Unsubscribe(token)
}

// Get reads any path in canonical or derived state, unscoped.
func (c *Context) Get(path string) any {
	return c.store.Get(path)
}

// GetOwn returns this layer's own subtree, the value at layers.<layerId>.
func (c *Context) GetOwn() any {
	return c.store.Get(c.ownPath(""))
}

// SetOwn writes a value under this layer's own subtree. pathSuffix must not
// begin with "layers." — the cross-layer write guard rejects any attempt
// by a layer to reach into another layer's namespace through its own
// facade.
func (c *Context) SetOwn(pathSuffix string, value any) error {
	if err := c.guardSuffix(pathSuffix); err != nil {
		return err
	}
	return c.store.Set(c.ownPath(pathSuffix), value)
}

// PatchOwn merges partial into this layer's own subtree at pathSuffix,
// subject to the same cross-layer write guard as SetOwn.
func (c *Context) PatchOwn(pathSuffix string, partial map[string]any) error {
	if err := c.guardSuffix(pathSuffix); err != nil {
		return err
	}
	return c.store.Patch(c.ownPath(pathSuffix), partial)
}

// Modifiers returns the shared modifier resolver handle.
func (c *Context) Modifiers() *modifier.Resolver {
	return c.modifiers
}

// Resets returns the shared reset service handle.
func (c *Context) Resets() *ResetService {
	return c.resets
}

func (c *Context) guardSuffix(pathSuffix string) error {
	if pathSuffix == "layers" || strings.HasPrefix(pathSuffix, "layers.") {
		return fmt.Errorf("layer: %s: cross-layer write rejected for suffix %q", c.layerID, pathSuffix)
	}
	return nil
}

func (c *Context) ownPath(pathSuffix string) string {
	base := "layers." + c.layerID
	if pathSuffix == "" {
		return base
	}
	return base + "." + pathSuffix
}
