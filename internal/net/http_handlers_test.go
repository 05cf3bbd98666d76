package net

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"idlecore/engine"
	"idlecore/eventbus"
	"idlecore/gamedef"
	"idlecore/layer"
)

func testDefinitionJSON() []byte {
	def := gamedef.Definition{
		Meta: gamedef.Meta{SchemaVersion: "1.0", GameID: "test-game"},
		Layers: []gamedef.Layer{
			{ID: "progress", Type: "progressLayer"},
		},
	}
	raw, err := json.Marshal(def)
	if err != nil {
		panic(err)
	}
	return raw
}

type stubLayer struct{ id, typ string }

func (s *stubLayer) ID() string               { return s.id }
func (s *stubLayer) Type() string             { return s.typ }
func (s *stubLayer) Init(*layer.Context) error { return nil }
func (s *stubLayer) Update(float64)            {}
func (s *stubLayer) OnEvent(eventbus.Event)    {}
func (s *stubLayer) Destroy()                  {}
func (s *stubLayer) GetViewModel() any         { return nil }

func newTestHost(t *testing.T) *Host {
	t.Helper()
	registry := layer.NewRegistry()
	if err := registry.Register("progressLayer", func(def *gamedef.Layer, ctx *layer.Context) (layer.Instance, error) {
		return &stubLayer{id: def.ID, typ: def.Type}, nil
	}); err != nil {
		t.Fatalf("registering stub factory: %v", err)
	}
	return NewHost(registry, engine.Config{})
}

func TestHTTPHealthz(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", resp.Body.String())
	}
}

func TestHTTPDefinitionLoadThenTick(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/definition", bytes.NewReader(testDefinitionJSON()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 loading definition, got %d: %s", resp.Code, resp.Body.String())
	}

	tickReq := httptest.NewRequest(http.MethodPost, "/tick", nil)
	tickResp := httptest.NewRecorder()
	handler.ServeHTTP(tickResp, tickReq)
	if tickResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on tick, got %d: %s", tickResp.Code, tickResp.Body.String())
	}
}

func TestHTTPTickWithoutDefinitionConflicts(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/tick", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 with no definition loaded, got %d", resp.Code)
	}
}

func TestHTTPDefinitionRejectsInvalidPayload(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/definition", bytes.NewBufferString("{"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d", resp.Code)
	}
}

func TestHTTPDefinitionRejectsWrongMethod(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/definition", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 Method Not Allowed, got %d", resp.Code)
	}
}

func TestHTTPIntentEnqueuesAfterDefinitionLoaded(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	defReq := httptest.NewRequest(http.MethodPost, "/definition", bytes.NewReader(testDefinitionJSON()))
	defResp := httptest.NewRecorder()
	handler.ServeHTTP(defResp, defReq)
	if defResp.Code != http.StatusOK {
		t.Fatalf("expected 200 loading definition, got %d", defResp.Code)
	}

	body := []byte(`{"type":"START_JOB","payload":{},"source":"test"}`)
	req := httptest.NewRequest(http.MethodPost, "/intent", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 Accepted, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestHTTPIntentWithoutDefinitionConflicts(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	body := []byte(`{"type":"START_JOB"}`)
	req := httptest.NewRequest(http.MethodPost, "/intent", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 with no definition loaded, got %d", resp.Code)
	}
}

func TestHTTPUIConflictsBeforeFirstTick(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	defReq := httptest.NewRequest(http.MethodPost, "/definition", bytes.NewReader(testDefinitionJSON()))
	defResp := httptest.NewRecorder()
	handler.ServeHTTP(defResp, defReq)
	if defResp.Code != http.StatusOK {
		t.Fatalf("expected 200 loading definition, got %d", defResp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ui", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 before any tick has run, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestHTTPUIReturnsTreeFromLastTick(t *testing.T) {
	host := newTestHost(t)
	handler := NewHTTPHandler(host, HTTPHandlerConfig{})

	defReq := httptest.NewRequest(http.MethodPost, "/definition", bytes.NewReader(testDefinitionJSON()))
	defResp := httptest.NewRecorder()
	handler.ServeHTTP(defResp, defReq)
	if defResp.Code != http.StatusOK {
		t.Fatalf("expected 200 loading definition, got %d", defResp.Code)
	}

	tickReq := httptest.NewRequest(http.MethodPost, "/tick", nil)
	tickResp := httptest.NewRecorder()
	handler.ServeHTTP(tickResp, tickReq)
	if tickResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on tick, got %d: %s", tickResp.Code, tickResp.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/ui", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode UI payload: %v", err)
	}
	if _, ok := payload["layers"]; !ok {
		t.Fatalf("expected UI tree to include layers, got %s", resp.Body.String())
	}

	// /ui must not itself have advanced the tick: polling it repeatedly
	// should keep returning the same cached tree without side effects.
	req2 := httptest.NewRequest(http.MethodGet, "/ui", nil)
	resp2 := httptest.NewRecorder()
	handler.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeated /ui, got %d: %s", resp2.Code, resp2.Body.String())
	}
	if resp2.Body.String() != resp.Body.String() {
		t.Fatalf("expected repeated /ui to return the same cached tree, got %q vs %q", resp2.Body.String(), resp.Body.String())
	}
}
