// Package intent routes normalized intents through a catalog-validated,
// lock-aware router. Routing never mutates state directly; effects occur
// inside registered handlers.
package intent

import "fmt"

// LockPolicy names how the router treats a locked target node reference.
type LockPolicy string

const (
	LockPolicyNone             LockPolicy = "none"
	LockPolicyRejectIfLocked LockPolicy = "reject-if-target-locked"
)

// PayloadValidator inspects an intent payload and returns a non-empty
// reason string if it is invalid.
type PayloadValidator func(payload map[string]any) string

// CatalogEntry describes one registered intent type.
type CatalogEntry struct {
	Type             string
	PayloadValidator PayloadValidator
	RoutingTarget    string
	LockPolicy       LockPolicy
}

// Catalog is a process-wide immutable registry of intent catalog entries.
type Catalog struct {
	entries map[string]CatalogEntry
}

// NewCatalog builds a Catalog from a fixed entry list.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{entries: make(map[string]CatalogEntry, len(entries))}
	for _, e := range entries {
		c.entries[e.Type] = e
	}
	return c
}

// Lookup returns the entry for a type, if registered.
func (c *Catalog) Lookup(intentType string) (CatalogEntry, bool) {
	if c == nil {
		return CatalogEntry{}, false
	}
	e, ok := c.entries[intentType]
	return e, ok
}

// Intent is a normalized request from the UI or an external driver.
type Intent struct {
	Type    string
	Payload map[string]any
	Source  string
}

// Handler executes the routed intent's effect.
type Handler func(Intent) any

// Code enumerates the router's recoverable outcome codes.
type Code string

const (
	CodeRouted          Code = "INTENT_ROUTED"
	CodeCatalogMissing  Code = "INTENT_CATALOG_MISSING"
	CodePayloadInvalid  Code = "INTENT_PAYLOAD_INVALID"
	CodeTargetLocked    Code = "INTENT_TARGET_LOCKED"
	CodeHandlerMissing  Code = "INTENT_HANDLER_MISSING"
)

// Result is the outcome of routing one intent. Routing failures are
// ordinary result values, never errors: the tick continues regardless.
type Result struct {
	OK            bool
	Code          Code
	RoutingTarget string
	Result        any
	Reason        string
}

// LockChecker reports whether a node reference is currently locked.
type LockChecker func(ref string) bool

// Router dispatches intents by catalog-declared routing target.
type Router struct {
	catalog        *Catalog
	strict         bool
	isNodeLocked   LockChecker
	handlers       map[string]Handler
	registeredType map[string]bool
}

// New constructs a Router. isNodeLocked is consulted only for catalog
// entries whose LockPolicy is reject-if-target-locked.
func New(catalog *Catalog, strict bool, isNodeLocked LockChecker) *Router {
	if isNodeLocked == nil {
		isNodeLocked = func(string) bool { return false }
	}
	return &Router{
		catalog:        catalog,
		strict:         strict,
		isNodeLocked:   isNodeLocked,
		handlers:       make(map[string]Handler),
		registeredType: make(map[string]bool),
	}
}

// Register binds a handler to an intent type. Duplicate registration is a
// programming error: it panics rather than silently overwriting, since
// last-writer-wins would hide a content/wiring bug.
func (r *Router) Register(intentType string, handler Handler) {
	if r.registeredType[intentType] {
		panic(fmt.Sprintf("intent: duplicate handler registration for %q", intentType))
	}
	r.registeredType[intentType] = true
	r.handlers[intentType] = handler
}

// Route normalizes intent, validates it against the catalog, checks the
// lock policy, and invokes the registered handler.
func (r *Router) Route(raw Intent) Result {
	normalized := normalize(raw)

	entry, ok := r.catalog.Lookup(normalized.Type)
	if !ok {
		return Result{OK: false, Code: CodeCatalogMissing}
	}

	if r.strict && entry.PayloadValidator != nil {
		if reason := entry.PayloadValidator(normalized.Payload); reason != "" {
			return Result{OK: false, Code: CodePayloadInvalid, Reason: reason}
		}
	}

	if entry.LockPolicy == LockPolicyRejectIfLocked {
		if target, ok := normalized.Payload["targetRef"].(string); ok && target != "" {
			if r.isNodeLocked(target) {
				return Result{OK: false, Code: CodeTargetLocked, RoutingTarget: entry.RoutingTarget}
			}
		}
	}

	handler, ok := r.handlers[normalized.Type]
	if !ok {
		return Result{OK: false, Code: CodeHandlerMissing, RoutingTarget: entry.RoutingTarget}
	}

	result := handler(normalized)
	return Result{OK: true, Code: CodeRouted, RoutingTarget: entry.RoutingTarget, Result: result}
}

// targetRefValidator rejects a payload missing a non-empty targetRef.
func targetRefValidator(p map[string]any) string {
	if s, ok := p["targetRef"].(string); !ok || s == "" {
		return "targetRef must be a non-empty string"
	}
	return ""
}

// SeededCatalog returns the intent catalog entries named in the engine
// spec: START_JOB/STOP_JOB targeting progressLayer, REQUEST_LAYER_RESET
// targeting the LayerResetService, PULL_GACHA targeting gachaLayer, and
// ACTIVATE_MINIGAME targeting minigameLayer. All five use
// reject-if-target-locked.
func SeededCatalog() *Catalog {
	return NewCatalog([]CatalogEntry{
		{Type: "START_JOB", PayloadValidator: targetRefValidator, RoutingTarget: "progressLayer", LockPolicy: LockPolicyRejectIfLocked},
		{Type: "STOP_JOB", PayloadValidator: targetRefValidator, RoutingTarget: "progressLayer", LockPolicy: LockPolicyRejectIfLocked},
		{Type: "REQUEST_LAYER_RESET", PayloadValidator: targetRefValidator, RoutingTarget: "LayerResetService", LockPolicy: LockPolicyRejectIfLocked},
		{Type: "PULL_GACHA", PayloadValidator: targetRefValidator, RoutingTarget: "gachaLayer", LockPolicy: LockPolicyRejectIfLocked},
		{Type: "ACTIVATE_MINIGAME", PayloadValidator: targetRefValidator, RoutingTarget: "minigameLayer", LockPolicy: LockPolicyRejectIfLocked},
	})
}

func normalize(i Intent) Intent {
	if i.Payload == nil {
		i.Payload = map[string]any{}
	}
	if i.Source == "" {
		i.Source = "ui"
	}
	return i
}
