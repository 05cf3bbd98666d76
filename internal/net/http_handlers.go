// Package net is the minimal HTTP demo host for the engine: load a Game
// Definition, enqueue intents, advance ticks, and fetch the rendered UI
// tree, all as plain request/response JSON rather than the teacher's
// live per-frame websocket push — nothing in this core needs a socket,
// since a host drives ticks on its own schedule and polls the result.
package net

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"idlecore/engine"
	"idlecore/gamedef"
	"idlecore/intent"
	"idlecore/internal/observability"
	"idlecore/internal/telemetry"
	"idlecore/layer"
)

// Host owns the single engine instance a demo process serves. Loading a
// new definition discards the previous engine outright: the engine has no
// in-place hot-reload, matching spec.md's "no partial runtime is created"
// rule for definition loading.
type Host struct {
	mu       sync.Mutex
	registry *layer.Registry
	cfg      engine.Config
	eng      *engine.Engine
	lastTick time.Time
	lastUI   engine.UITree
	haveUI   bool
}

// NewHost constructs a Host bound to registry: the set of layer factories
// the embedding process compiled in. cfg supplies engine tuning
// (MaxEventsPerTick, etc.); its Registry and DeltaTime fields are
// overwritten by the Host.
func NewHost(registry *layer.Registry, cfg engine.Config) *Host {
	cfg.Registry = registry
	return &Host{registry: registry, cfg: cfg}
}

// wallClockDeltaTime returns elapsed real time since the previous call,
// zero on the first call. Bound as the engine's DeltaTimeFunc for a host
// that advances ticks on an external, unpredictable schedule (HTTP
// requests) rather than a fixed simulation rate.
func (h *Host) wallClockDeltaTime() (float64, error) {
	now := time.Now()
	if h.lastTick.IsZero() {
		h.lastTick = now
		return 0, nil
	}
	dt := now.Sub(h.lastTick).Seconds()
	h.lastTick = now
	return dt, nil
}

// LoadDefinition validates def and replaces the running engine.
func (h *Host) LoadDefinition(def *gamedef.Definition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	cfg := h.cfg
	cfg.DeltaTime = h.wallClockDeltaTime
	eng, err := engine.New(def, cfg)
	if err != nil {
		return err
	}
	h.eng = eng
	h.lastTick = time.Time{}
	h.lastUI = engine.UITree{}
	h.haveUI = false
	return nil
}

// HTTPHandlerConfig tunes the demo host's HTTP surface.
type HTTPHandlerConfig struct {
	Logger        telemetry.Logger
	Metrics       telemetry.Metrics
	Observability observability.Config
}

// NewHTTPHandler builds the demo host's mux: POST /definition, POST
// /intent, POST /tick, GET /ui, GET /healthz.
func NewHTTPHandler(host *Host, cfg HTTPHandlerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewCounters()
	}

	mux := http.NewServeMux()
	observability.Register(mux, cfg.Observability)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/definition", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := readAll(r)
		if err != nil {
			httpError(w, err.Error(), http.StatusBadRequest)
			return
		}
		def, err := gamedef.Parse(body)
		if err != nil {
			httpError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := host.LoadDefinition(def); err != nil {
			httpError(w, err.Error(), http.StatusBadRequest)
			return
		}
		metrics.Add("definitions_loaded", 1)
		logger.Printf("loaded definition gameId=%s", def.Meta.GameID)
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "gameId": def.Meta.GameID})
	})

	mux.HandleFunc("/intent", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		host.mu.Lock()
		eng := host.eng
		host.mu.Unlock()
		if eng == nil {
			httpError(w, "no definition loaded", http.StatusConflict)
			return
		}
		var wire struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
			Source  string         `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
			httpError(w, err.Error(), http.StatusBadRequest)
			return
		}
		host.mu.Lock()
		eng.EnqueueIntent(intent.Intent{Type: wire.Type, Payload: wire.Payload, Source: wire.Source})
		host.mu.Unlock()
		metrics.Add("intents_enqueued", 1)
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued"})
	})

	mux.HandleFunc("/tick", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		host.mu.Lock()
		defer host.mu.Unlock()
		if host.eng == nil {
			httpError(w, "no definition loaded", http.StatusConflict)
			return
		}
		summary, err := host.eng.Tick()
		if err != nil {
			logger.Printf("tick failed: %v", err)
			metrics.Add("ticks_fatal", 1)
			httpError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		host.lastUI = summary.UI
		host.haveUI = true
		metrics.Add("ticks_processed", 1)
		writeJSON(w, http.StatusOK, summary)
	})

	// /ui is a pure read: it serves the UI tree from the most recent
	// /tick rather than advancing the engine itself, so polling it has no
	// simulation side effect.
	mux.HandleFunc("/ui", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httpError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		host.mu.Lock()
		defer host.mu.Unlock()
		if host.eng == nil {
			httpError(w, "no definition loaded", http.StatusConflict)
			return
		}
		if !host.haveUI {
			httpError(w, "no tick has run yet", http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, host.lastUI)
	})

	return mux
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]any{"error": msg})
}
