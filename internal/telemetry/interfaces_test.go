package telemetry

import (
	"bytes"
	"log"
	"testing"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); got != "hello world\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
	})
}

func TestCountersAddStoreSnapshot(t *testing.T) {
	c := NewCounters()
	c.Add("ticks", 2)
	c.Store("ticks", 5)
	c.Add("ticks", 3)
	c.Add("resets", 1)

	snapshot := c.Snapshot()
	if snapshot["ticks"] != 8 {
		t.Fatalf("ticks = %d, want 8", snapshot["ticks"])
	}
	if snapshot["resets"] != 1 {
		t.Fatalf("resets = %d, want 1", snapshot["resets"])
	}

	var nilCounters *Counters
	nilCounters.Add("ignored", 1)
	nilCounters.Store("ignored", 1)
	if nilCounters.Snapshot() != nil {
		t.Fatal("nil Counters.Snapshot() should return nil")
	}

	var asMetrics Metrics = c
	asMetrics.Add("via-interface", 1)
	if c.Snapshot()["via-interface"] != 1 {
		t.Fatal("expected Add through the Metrics interface to land on the concrete Counters")
	}
}
