// Package gamedef defines the Game Definition content tree — the
// JSON-authored input validated once at startup and then treated as
// immutable for the lifetime of a running engine.
package gamedef

// Definition is the root of a Game Definition tree.
type Definition struct {
	Meta    Meta           `json:"meta" jsonschema:"required"`
	Systems map[string]any `json:"systems,omitempty" jsonschema:"description=Scalar engine configuration."`
	State   map[string]any `json:"state,omitempty" jsonschema:"description=Initial canonical state tree."`
	Layers  []Layer        `json:"layers" jsonschema:"required,description=Ordered top-level layer definitions."`
}

// Meta carries schema/version and game identity.
type Meta struct {
	SchemaVersion string `json:"schemaVersion" jsonschema:"required,pattern=^[0-9]+\\.[0-9]+$"`
	GameID        string `json:"gameId" jsonschema:"required,minLength=1"`
}

// ResetConfig names the canonical state paths a layer reset preserves.
type ResetConfig struct {
	Keep []string `json:"keep,omitempty"`
}

// SoftcapDef is a designer-authored softcap rule scoped to a node
// reference and a modifier key.
type SoftcapDef struct {
	Scope     string  `json:"scope" jsonschema:"required"`
	Key       string  `json:"key" jsonschema:"required"`
	Threshold float64 `json:"threshold"`
}

// Effect names the node reference an element's effect targets.
type Effect struct {
	TargetRef string `json:"targetRef,omitempty"`
}

// Element is the leaf content node.
type Element struct {
	ID     string         `json:"id" jsonschema:"required"`
	Type   string         `json:"type,omitempty"`
	Unlock map[string]any `json:"unlock,omitempty"`
	Effect *Effect        `json:"effect,omitempty"`
}

// Section groups elements.
type Section struct {
	ID       string         `json:"id" jsonschema:"required"`
	Unlock   map[string]any `json:"unlock,omitempty"`
	Elements []Element      `json:"elements,omitempty"`
}

// Sublayer groups sections.
type Sublayer struct {
	ID       string         `json:"id" jsonschema:"required"`
	Unlock   map[string]any `json:"unlock,omitempty"`
	Sections []Section      `json:"sections,omitempty"`
}

// Layer is a top-level plugin-owned slice of the definition.
type Layer struct {
	ID        string         `json:"id" jsonschema:"required"`
	Type      string         `json:"type" jsonschema:"required"`
	Unlock    map[string]any `json:"unlock,omitempty"`
	Reset     *ResetConfig   `json:"reset,omitempty"`
	Softcaps  []SoftcapDef   `json:"softcaps,omitempty"`
	Sublayers []Sublayer     `json:"sublayers,omitempty"`
}
