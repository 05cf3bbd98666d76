// Package layer implements the Layer Registry, the per-layer host Context,
// and the Layer Reset Service.
package layer

import (
	"fmt"
	"sync"

	"idlecore/eventbus"
	"idlecore/gamedef"
)

// Instance is the contract every layer plugin must satisfy. Go's static
// interface satisfaction already rejects a factory whose return value is
// missing a method at compile time; CreateLayer only needs to assert the
// one thing the compiler cannot check — that the instance reports the id
// and type the definition actually declared.
type Instance interface {
	ID() string
	Type() string
	Init(ctx *Context) error
	Update(dt float64)
	OnEvent(event eventbus.Event)
	Destroy()
	GetViewModel() any
}

// Factory builds a layer instance from its definition and host context.
type Factory func(def *gamedef.Layer, ctx *Context) (Instance, error)

// Registry maps a layer type name to the factory that builds instances of
// it, the same registry-by-type shape the teacher's effect catalog uses for
// effect behaviors.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under layerType. It rejects an empty type, a nil
// factory, and re-registration of an already-registered type.
func (r *Registry) Register(layerType string, factory Factory) error {
	if layerType == "" {
		return fmt.Errorf("layer: register: empty layer type")
	}
	if factory == nil {
		return fmt.Errorf("layer: register: nil factory for type %q", layerType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[layerType]; exists {
		return fmt.Errorf("layer: register: duplicate factory for type %q", layerType)
	}
	r.factories[layerType] = factory
	return nil
}

// CreateLayer looks up the factory for def.Type, invokes it, and asserts
// the returned instance reports the id and type the definition declared.
// Any mismatch, a missing factory, or a factory error is fatal during
// engine initialization.
func (r *Registry) CreateLayer(def *gamedef.Layer, ctx *Context) (Instance, error) {
	r.mu.Lock()
	factory, ok := r.factories[def.Type]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("layer: no factory registered for type %q (layer %q)", def.Type, def.ID)
	}

	instance, err := factory(def, ctx)
	if err != nil {
		return nil, fmt.Errorf("layer: factory for type %q failed: %w", def.Type, err)
	}
	if instance == nil {
		return nil, fmt.Errorf("layer: factory for type %q returned a nil instance", def.Type)
	}
	if instance.ID() != def.ID {
		return nil, fmt.Errorf("layer: instance id %q does not match definition id %q", instance.ID(), def.ID)
	}
	if instance.Type() != def.Type {
		return nil, fmt.Errorf("layer: instance type %q does not match definition type %q", instance.Type(), def.Type)
	}
	return instance, nil
}
