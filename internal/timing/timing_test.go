package timing

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSpanLogsStartAndEnd(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	span := Start(logger, "test.op", zap.Int("n", 3))
	elapsed := span.End(zap.String("outcome", "ok"))

	if elapsed < 0 {
		t.Fatalf("expected non-negative elapsed, got %v", elapsed)
	}
	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "test.op.start" {
		t.Errorf("expected start event, got %q", entries[0].Message)
	}
	if entries[1].Message != "test.op.done" {
		t.Errorf("expected done event, got %q", entries[1].Message)
	}

	fields := entries[1].ContextMap()
	if _, ok := fields["elapsed"]; !ok {
		t.Error("expected an elapsed field on the done event")
	}
	if fields["outcome"] != "ok" {
		t.Errorf("expected outcome field, got %v", fields["outcome"])
	}
}

func TestSpanNilLogger(t *testing.T) {
	span := Start(nil, "noop")
	if elapsed := span.End(); elapsed < 0 {
		t.Fatalf("expected non-negative elapsed, got %v", elapsed)
	}
}

func TestSpanMeasuresElapsed(t *testing.T) {
	span := Start(zap.NewNop(), "sleepy")
	time.Sleep(5 * time.Millisecond)
	if elapsed := span.End(); elapsed < 5*time.Millisecond {
		t.Errorf("expected at least 5ms elapsed, got %v", elapsed)
	}
}
