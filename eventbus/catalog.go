package eventbus

// PayloadValidator inspects a normalized event payload and returns a
// non-empty reason string if it is invalid.
type PayloadValidator func(payload map[string]any) string

// CatalogEntry describes one registered event type: how its payload is
// validated, which phases it may be published in, which components produce
// it (informational only), and which layer types consume it (the engine
// subscribes each layer whose type is listed in Consumers).
type CatalogEntry struct {
	Type             string
	PayloadValidator PayloadValidator
	Producers        []string
	Consumers        []string
	AllowedPhases    map[string]bool
}

// Catalog is a process-wide immutable registry of event catalog entries
// keyed by type.
type Catalog struct {
	entries map[string]CatalogEntry
}

// NewCatalog builds a Catalog from a fixed entry list. The catalog is
// immutable after construction.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{entries: make(map[string]CatalogEntry, len(entries))}
	for _, e := range entries {
		c.entries[e.Type] = e
	}
	return c
}

// Lookup returns the entry for a type, if registered.
func (c *Catalog) Lookup(eventType string) (CatalogEntry, bool) {
	if c == nil {
		return CatalogEntry{}, false
	}
	e, ok := c.entries[eventType]
	return e, ok
}

// ConsumersOf returns the consumer list for a type (nil if unregistered).
func (c *Catalog) ConsumersOf(eventType string) []string {
	e, ok := c.Lookup(eventType)
	if !ok {
		return nil
	}
	return e.Consumers
}

// AllTypes returns every registered event type, in no particular order.
func (c *Catalog) AllTypes() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.entries))
	for t := range c.entries {
		out = append(out, t)
	}
	return out
}

func allowAll(phases ...string) map[string]bool {
	m := make(map[string]bool, len(phases))
	for _, p := range phases {
		m[p] = true
	}
	return m
}

// SeededCatalog returns the event catalog entries named in the engine spec:
// UNLOCKED, LAYER_RESET_REQUESTED, LAYER_RESET_EXECUTED.
func SeededCatalog() *Catalog {
	return NewCatalog([]CatalogEntry{
		{
			Type:          "UNLOCKED",
			Producers:     []string{"UnlockEvaluator"},
			AllowedPhases: allowAll("unlock-evaluation"),
			PayloadValidator: func(p map[string]any) string {
				if s, ok := p["targetRef"].(string); !ok || s == "" {
					return "targetRef must be a non-empty string"
				}
				return ""
			},
		},
		{
			Type:          "LAYER_RESET_REQUESTED",
			AllowedPhases: allowAll("input", "layer-update", "event-dispatch"),
			PayloadValidator: func(p map[string]any) string {
				if s, ok := p["layerId"].(string); !ok || s == "" {
					return "layerId must be a non-empty string"
				}
				return ""
			},
		},
		{
			Type:          "LAYER_RESET_EXECUTED",
			AllowedPhases: allowAll("event-dispatch"),
			PayloadValidator: func(p map[string]any) string {
				if s, ok := p["layerId"].(string); !ok || s == "" {
					return "layerId must be a non-empty string"
				}
				return ""
			},
		},
	})
}
