// Package eventbus implements a validated, queue-only publish/subscribe
// bus. Publish never runs a handler synchronously; handlers only run from
// dispatchQueued, which drains the queue in FIFO cycles bounded by
// configurable guardrails.
package eventbus

import (
	"fmt"
	"sync"
	"time"
)

// Event is the normalized unit carried on the bus.
type Event struct {
	Type    string
	Payload map[string]any
	Ts      int64
	Source  string
	Phase   string
	Meta    map[string]any
}

// Token is an opaque subscription identifier, unique per Bus instance.
type Token uint64

// Handler receives dispatched events.
type Handler func(Event)

type subscription struct {
	token   Token
	handler Handler
	scope   string
}

// Config tunes guardrails and strict validation.
type Config struct {
	Catalog                  *Catalog
	Strict                   bool
	MaxEventsPerTick         int
	MaxDispatchCyclesPerTick int
}

// DispatchReport summarizes the outcome of one dispatchQueued call.
type DispatchReport struct {
	CyclesProcessed         int
	EventsProcessed         int
	DeliveredHandlers       int
	DeferredEvents          int
	DeferredDueToCycleLimit bool
}

// OverflowError is raised (as a panic, recovered by the engine) when a
// single dispatchQueued call processes more events than MaxEventsPerTick —
// a recursive-publish guard.
type OverflowError struct {
	Limit int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("eventbus: maxEventsPerTick exceeded (limit=%d)", e.Limit)
}

// ValidationError is returned by Publish when strict validation rejects an
// event.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("eventbus: publish rejected: %s", e.Reason)
}

// Bus is a FIFO, validated, queue-only event bus.
type Bus struct {
	mu    sync.Mutex
	cfg   Config
	queue []Event

	subsMu sync.Mutex
	subs   map[string][]subscription
	nextID uint64

	allowedPhase string
	hasPhase     bool

	lastReport DispatchReport
}

// New constructs a Bus. A zero-value Config disables strict validation and
// guardrails entirely other than a minimum safety floor.
func New(cfg Config) *Bus {
	if cfg.MaxEventsPerTick <= 0 {
		cfg.MaxEventsPerTick = 10_000
	}
	if cfg.MaxDispatchCyclesPerTick <= 0 {
		cfg.MaxDispatchCyclesPerTick = 8
	}
	return &Bus{cfg: cfg, subs: make(map[string][]subscription)}
}

// SetAllowedPhase is called by the engine on phase entry so strict publish
// validation can enforce each event catalog entry's allowed-phases set.
func (b *Bus) SetAllowedPhase(phase string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowedPhase = phase
	b.hasPhase = true
}

// Publish normalizes and (if strict) validates event, then appends it to
// the queue. No handler runs synchronously.
func (b *Bus) Publish(event Event) error {
	normalized := normalize(event, time.Now().UnixNano())

	if b.cfg.Strict {
		entry, ok := b.cfg.Catalog.Lookup(normalized.Type)
		if !ok {
			return &ValidationError{Reason: fmt.Sprintf("unknown event type %q", normalized.Type)}
		}
		if entry.PayloadValidator != nil {
			if reason := entry.PayloadValidator(normalized.Payload); reason != "" {
				return &ValidationError{Reason: reason}
			}
		}
		phase := normalized.Phase
		if phase == "" {
			b.mu.Lock()
			if b.hasPhase {
				phase = b.allowedPhase
			}
			b.mu.Unlock()
			normalized.Phase = phase
		}
		if len(entry.AllowedPhases) > 0 && !entry.AllowedPhases[phase] {
			return &ValidationError{Reason: fmt.Sprintf("event %q not allowed in phase %q", normalized.Type, phase)}
		}
	}

	b.mu.Lock()
	b.queue = append(b.queue, normalized)
	b.mu.Unlock()
	return nil
}

func normalize(e Event, now int64) Event {
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	if e.Ts == 0 {
		e.Ts = now
	}
	if e.Source == "" {
		e.Source = "engine"
	}
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	return e
}

// Subscribe registers handler for type, returning an opaque token.
func (b *Bus) Subscribe(eventType string, handler Handler, scope string) Token {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	b.nextID++
	tok := Token(b.nextID)
	b.subs[eventType] = append(b.subs[eventType], subscription{token: tok, handler: handler, scope: scope})
	return tok
}

// Unsubscribe removes at most one subscription, returning whether it
// existed.
func (b *Bus) Unsubscribe(token Token) bool {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	for eventType, list := range b.subs {
		for i, s := range list {
			if s.token == token {
				b.subs[eventType] = append(list[:i], list[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (b *Bus) snapshotSubscribers() map[string][]subscription {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	out := make(map[string][]subscription, len(b.subs))
	for t, list := range b.subs {
		cloned := make([]subscription, len(list))
		copy(cloned, list)
		out[t] = cloned
	}
	return out
}

func (b *Bus) detachQueue() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.queue
	b.queue = nil
	return current
}

func (b *Bus) queueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// DispatchQueued drains the queue in FIFO cycles, bounded by
// MaxDispatchCyclesPerTick, delivering each event to a per-cycle snapshot of
// subscribers. It panics with *OverflowError if a single call processes
// more than MaxEventsPerTick events — callers (the engine) treat this as a
// fatal, tick-halting condition per the recursive-publish guard.
func (b *Bus) DispatchQueued() int {
	report := DispatchReport{}
	delivered := 0

	for report.CyclesProcessed < b.cfg.MaxDispatchCyclesPerTick {
		if b.queueLen() == 0 {
			break
		}
		report.CyclesProcessed++
		cycle := b.detachQueue()
		subs := b.snapshotSubscribers()

		for _, event := range cycle {
			report.EventsProcessed++
			if report.EventsProcessed > b.cfg.MaxEventsPerTick {
				panic(&OverflowError{Limit: b.cfg.MaxEventsPerTick})
			}
			for _, s := range subs[event.Type] {
				s.handler(event)
				delivered++
			}
		}
	}

	report.DeliveredHandlers = delivered
	report.DeferredEvents = b.queueLen()
	report.DeferredDueToCycleLimit = report.DeferredEvents > 0

	b.mu.Lock()
	b.lastReport = report
	b.mu.Unlock()

	return delivered
}

// GetLastDispatchReport returns a copy of the most recent dispatch report.
func (b *Bus) GetLastDispatchReport() DispatchReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastReport
}
