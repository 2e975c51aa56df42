package util

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerLastTriggerWins(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan struct{}, 4)
	d := NewDebouncer(100*time.Millisecond, func() {
		calls.Add(1)
		fired <- struct{}{}
	})

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	if !d.Pending() {
		t.Fatal("Pending() = false right after Trigger")
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced function never ran")
	}
	time.Sleep(200 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("debounced function ran %d times, want 1", n)
	}
	if d.Pending() {
		t.Error("Pending() = true after the run")
	}
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("stopped debouncer ran %d times, want 0", n)
	}
	if d.Pending() {
		t.Error("Pending() = true after Stop")
	}
}

func TestNewLoggerToLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "source", "solana")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, `"source":"solana"`) {
		t.Errorf("expected JSON attr in output, got %s", out)
	}
}

func TestNewLoggerToText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "bogus", "text")

	logger.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected text handler output, got %q", buf.String())
	}
}
