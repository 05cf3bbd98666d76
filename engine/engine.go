// Package engine drives the fixed six-phase tick pipeline — input, time,
// layer-update, event-dispatch, unlock-evaluation, render — over a
// validated Game Definition, wiring together the state store, event bus,
// intent router, unlock evaluator, layer registry, and modifier resolver.
package engine

import (
	"context"
	"fmt"
	"math"

	"idlecore/eventbus"
	"idlecore/gamedef"
	"idlecore/intent"
	"idlecore/layer"
	"idlecore/logging"
	"idlecore/modifier"
	"idlecore/noderef"
	"idlecore/statestore"
	"idlecore/unlock"
)

// DeltaTimeFunc is the injected time-source adapter: an external
// collaborator per spec scope. It returns the elapsed seconds since the
// previous tick.
type DeltaTimeFunc func() (float64, error)

// Config tunes engine construction.
type Config struct {
	Registry                 *layer.Registry
	DeltaTime                DeltaTimeFunc
	MaxEventsPerTick         int
	MaxDispatchCyclesPerTick int
	SoftcapFn                modifier.Func

	// Publisher receives structured lifecycle/tick/dispatch/unlock/reset
	// log events. Defaults to logging.NopPublisher so a caller that never
	// wires a real sink pays no logging cost.
	Publisher logging.Publisher
}

// Summary is the per-tick report returned by Tick, matching the host-facing
// API's conceptual tick() → summary shape.
type Summary struct {
	IntentsRouted      []intent.Result
	Dt                 float64
	UpdatedLayers      int // number of layers updated; does not list their ids
	DispatchedHandlers int
	Dispatch           eventbus.DispatchReport
	Unlocks            unlock.Summary
	UI                 UITree
	ViewModels         map[string]any
}

// Engine is the constructed runtime for one validated Game Definition.
type Engine struct {
	def *gamedef.Definition

	store     *statestore.Store
	bus       *eventbus.Bus
	eventCat  *eventbus.Catalog
	router    *intent.Router
	evaluator *unlock.Evaluator
	resets    *layer.ResetService
	modifiers *modifier.Resolver
	registry  *layer.Registry

	layers       []layer.Instance
	deltaTime    DeltaTimeFunc
	cursor       *phaseCursor
	pending      []intent.Intent
	subscriptions []eventbus.Token

	publisher  logging.Publisher
	tickNumber uint64

	lastUnlocks unlock.Summary
	haveTicked  bool
}

// New validates def, builds every core component, constructs and
// initializes a layer instance per def.Layers entry (in definition order),
// and performs the fixed initialize-time wiring. Any failure returns a
// descriptive error and no partial Engine.
func New(def *gamedef.Definition, cfg Config) (*Engine, error) {
	if errs := gamedef.Validate(def); errs != nil {
		return nil, errs
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine: New: Config.Registry is required")
	}
	if cfg.DeltaTime == nil {
		return nil, fmt.Errorf("engine: New: Config.DeltaTime is required")
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	store := statestore.New(def.State)
	eventCat := eventbus.SeededCatalog()
	bus := eventbus.New(eventbus.Config{
		Catalog:                  eventCat,
		Strict:                   true,
		MaxEventsPerTick:         cfg.MaxEventsPerTick,
		MaxDispatchCyclesPerTick: cfg.MaxDispatchCyclesPerTick,
	})

	targets := buildUnlockTargets(def)
	evaluator := unlock.NewEvaluator(targets)

	softcapFn := cfg.SoftcapFn
	if softcapFn == nil {
		softcapFn = modifier.DefaultSoftcap
	}
	modifiers := modifier.New(buildSoftcaps(def, softcapFn))

	resets := layer.NewResetService(store, bus, def.State, def.Layers, publisher)

	e := &Engine{
		def:       def,
		store:     store,
		bus:       bus,
		eventCat:  eventCat,
		evaluator: evaluator,
		resets:    resets,
		modifiers: modifiers,
		registry:  cfg.Registry,
		deltaTime: cfg.DeltaTime,
		cursor:    newPhaseCursor(),
		publisher: publisher,
	}

	intentCatalog := intent.SeededCatalog()
	e.router = intent.New(intentCatalog, true, e.isNodeLocked)

	for i := range def.Layers {
		l := &def.Layers[i]
		ctx := layer.NewContext(l.ID, bus, store, modifiers, resets, e.router)
		instance, err := cfg.Registry.CreateLayer(l, ctx)
		if err != nil {
			return nil, fmt.Errorf("engine: New: %w", err)
		}
		if err := instance.Init(ctx); err != nil {
			return nil, fmt.Errorf("engine: New: layer %q init: %w", l.ID, err)
		}
		e.layers = append(e.layers, instance)
	}

	e.wireInitialize()

	return e, nil
}

// EnqueueIntent appends intent to the queue that will be routed at the
// start of the next tick's input phase. Callers must not call this
// re-entrantly from inside Tick.
func (e *Engine) EnqueueIntent(i intent.Intent) {
	e.pending = append(e.pending, i)
}

// Tick advances the engine exactly one frame through all six phases,
// returning the tick summary. A non-nil error is always a *FatalError: the
// caller must not call Tick again without reconstructing the engine.
func (e *Engine) Tick() (summary Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			if overflow, ok := r.(*eventbus.OverflowError); ok {
				err = &FatalError{Code: "EVENT_OVERFLOW", Message: overflow.Error()}
				e.publisher.Publish(context.Background(), logging.Event{
					Type:     "TICK_FATAL",
					Tick:     e.tickNumber,
					Actor:    logging.EntityRef{ID: e.def.Meta.GameID, Kind: logging.NodeKindEngine},
					Severity: logging.SeverityError,
					Category: logging.CategoryTick,
					Payload:  map[string]any{"code": err.(*FatalError).Code, "message": err.(*FatalError).Message},
				})
				return
			}
			panic(r)
		}
	}()

	e.cursor = newPhaseCursor()
	e.tickNumber++

	// input
	if perr := e.cursor.enter(PhaseInput); perr != nil {
		return Summary{}, perr
	}
	e.bus.SetAllowedPhase(PhaseInput.String())
	queued := e.pending
	e.pending = nil
	results := make([]intent.Result, len(queued))
	for i, in := range queued {
		results[i] = e.router.Route(in)
	}
	summary.IntentsRouted = results

	// time
	if perr := e.cursor.enter(PhaseTime); perr != nil {
		return Summary{}, perr
	}
	e.bus.SetAllowedPhase(PhaseTime.String())
	dt, terr := e.deltaTime()
	if terr != nil {
		return Summary{}, &FatalError{Code: "DT_SOURCE_ERROR", Message: terr.Error()}
	}
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return Summary{}, &FatalError{Code: "DT_INVALID", Message: fmt.Sprintf("dt=%v is not finite and non-negative", dt)}
	}
	summary.Dt = dt

	// layer-update
	if perr := e.cursor.enter(PhaseLayerUpdate); perr != nil {
		return Summary{}, perr
	}
	e.bus.SetAllowedPhase(PhaseLayerUpdate.String())
	for _, l := range e.layers {
		l.Update(dt)
	}
	summary.UpdatedLayers = len(e.layers)

	// event-dispatch
	if perr := e.cursor.enter(PhaseEventDispatch); perr != nil {
		return Summary{}, perr
	}
	e.bus.SetAllowedPhase(PhaseEventDispatch.String())
	delivered := e.bus.DispatchQueued()
	summary.DispatchedHandlers = delivered
	summary.Dispatch = e.bus.GetLastDispatchReport()
	e.publisher.Publish(context.Background(), logging.Event{
		Type:     "EVENT_DISPATCH_COMPLETED",
		Tick:     e.tickNumber,
		Actor:    logging.EntityRef{ID: e.def.Meta.GameID, Kind: logging.NodeKindEngine},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryDispatch,
		Payload: map[string]any{
			"cyclesProcessed":         summary.Dispatch.CyclesProcessed,
			"eventsProcessed":         summary.Dispatch.EventsProcessed,
			"deliveredHandlers":       summary.Dispatch.DeliveredHandlers,
			"deferredEvents":          summary.Dispatch.DeferredEvents,
			"deferredDueToCycleLimit": summary.Dispatch.DeferredDueToCycleLimit,
		},
	})

	// unlock-evaluation
	if perr := e.cursor.enter(PhaseUnlockEvaluation); perr != nil {
		return Summary{}, perr
	}
	e.bus.SetAllowedPhase(PhaseUnlockEvaluation.String())
	unlockSummary, uerr := e.evaluator.EvaluateAll("end-of-tick", e.store, e.bus)
	if uerr != nil {
		return Summary{}, &FatalError{Code: "UNLOCK_EVAL_FAILED", Message: uerr.Error()}
	}
	if err := e.store.SetDerived("unlocks.unlockedRefs", toAnySlice(unlockSummary.UnlockedRefs)); err != nil {
		return Summary{}, &FatalError{Code: "DERIVED_WRITE_FAILED", Message: err.Error()}
	}
	if err := e.store.SetDerived("unlocks.unlocked", boolMapToAny(unlockSummary.Unlocked)); err != nil {
		return Summary{}, &FatalError{Code: "DERIVED_WRITE_FAILED", Message: err.Error()}
	}
	e.lastUnlocks = unlockSummary
	e.haveTicked = true
	summary.Unlocks = unlockSummary

	for _, transition := range unlockSummary.Transitions {
		e.publisher.Publish(context.Background(), logging.Event{
			Type:     "NODE_UNLOCKED",
			Tick:     e.tickNumber,
			Actor:    logging.EntityRef{ID: transition.Ref, Kind: logging.NodeKindElement},
			Severity: logging.SeverityInfo,
			Category: logging.CategoryUnlock,
		})
	}

	// render
	if perr := e.cursor.enter(PhaseRender); perr != nil {
		return Summary{}, perr
	}
	e.bus.SetAllowedPhase(PhaseRender.String())
	summary.UI = buildUITree(e.def, unlockedSetFrom(unlockSummary))
	viewModels := make(map[string]any, len(e.layers))
	for _, l := range e.layers {
		viewModels[l.ID()] = l.GetViewModel()
	}
	summary.ViewModels = viewModels

	e.publisher.Publish(context.Background(), logging.Event{
		Type:     "TICK_COMPLETED",
		Tick:     e.tickNumber,
		Actor:    logging.EntityRef{ID: e.def.Meta.GameID, Kind: logging.NodeKindEngine},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryTick,
		Payload: map[string]any{
			"dt":                 dt,
			"updatedLayers":      summary.UpdatedLayers,
			"dispatchedHandlers": summary.DispatchedHandlers,
			"newlyUnlocked":      len(unlockSummary.Transitions),
		},
	})

	return summary, nil
}

// Destroy releases every layer instance and every subscription token the
// engine registered during wiring.
func (e *Engine) Destroy() {
	for _, tok := range e.subscriptions {
		e.bus.Unsubscribe(tok)
	}
	e.subscriptions = nil
	for _, l := range e.layers {
		l.Destroy()
	}
	e.layers = nil
}

// isNodeLocked is consulted by the intent router. Absence of any unlock
// summary yet (before the first tick's unlock-evaluation phase has run) is
// interpreted as unlocked; a ref with no registered unlock target is not
// gated and is also treated as unlocked.
func (e *Engine) isNodeLocked(ref string) bool {
	if !e.haveTicked {
		return false
	}
	canonical, err := noderef.Normalize(ref)
	if err != nil {
		canonical = ref
	}
	unlocked, ok := e.lastUnlocks.Unlocked[canonical]
	if !ok {
		return false
	}
	return !unlocked
}

func buildUnlockTargets(def *gamedef.Definition) []unlock.Target {
	var targets []unlock.Target
	gamedef.Walk(def, func(n gamedef.VisitedNode) {
		raw := n.Unlock
		if raw == nil {
			raw = map[string]any{"always": true}
		}
		node, err := unlock.ParseCondition(raw)
		if err != nil {
			// gamedef.Validate already rejects any definition with an
			// unparseable unlock condition; New never reaches here with
			// invalid content.
			node = unlock.Always{Value: false}
		}
		targets = append(targets, unlock.Target{Ref: n.Ref, Condition: node})
	})
	return targets
}

func buildSoftcaps(def *gamedef.Definition, fn modifier.Func) []modifier.Softcap {
	var out []modifier.Softcap
	for _, l := range def.Layers {
		for _, sc := range l.Softcaps {
			out = append(out, modifier.Softcap{
				TargetRef: sc.Scope,
				Key:       sc.Key,
				Threshold: sc.Threshold,
				Fn:        fn,
			})
		}
	}
	return out
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func boolMapToAny(in map[string]bool) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
