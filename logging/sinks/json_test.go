package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"idlecore/logging"
)

func TestJSONSinkWritesNewlineDelimitedEvents(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, 0)

	if err := sink.Write(logging.Event{Type: "TICK_COMPLETED", Tick: 1, Category: logging.CategoryTick}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Write(logging.Event{Type: "NODE_UNLOCKED", Tick: 1, Category: logging.CategoryUnlock}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	decoder := json.NewDecoder(&buf)
	var first, second map[string]any
	if err := decoder.Decode(&first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if err := decoder.Decode(&second); err != nil {
		t.Fatalf("decode second line: %v", err)
	}
	if first["type"] != "TICK_COMPLETED" || first["category"] != logging.CategoryTick {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if second["type"] != "NODE_UNLOCKED" || second["category"] != logging.CategoryUnlock {
		t.Fatalf("unexpected second record: %+v", second)
	}
}

func TestJSONSinkCloseFlushesBuffer(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSON(&buf, time.Hour)

	if err := sink.Write(logging.Event{Type: "TICK_COMPLETED"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected buffered writer to withhold bytes before flush, got %d bytes", buf.Len())
	}

	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected Close to flush buffered bytes")
	}
}
