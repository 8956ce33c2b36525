package notification

import (
	"context"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDispatcherFirstProviderWins(t *testing.T) {
	primary := NewMockProvider()
	fallback := NewMockProvider()
	d := NewDispatcher(testLogger(), primary, fallback)

	err := d.Send(context.Background(), Message{To: "a@example.com", Subject: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(primary.Sent()) != 1 {
		t.Errorf("primary sent %d messages, want 1", len(primary.Sent()))
	}
	if len(fallback.Sent()) != 0 {
		t.Errorf("fallback sent %d messages, want 0", len(fallback.Sent()))
	}
}

func TestDispatcherFallsBack(t *testing.T) {
	primary := NewMockProvider()
	primary.SetFailOnSend(true)
	fallback := NewMockProvider()
	d := NewDispatcher(testLogger(), primary, fallback)

	err := d.Send(context.Background(), Message{To: "a@example.com", Subject: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fallback.Sent()) != 1 {
		t.Errorf("fallback sent %d messages, want 1", len(fallback.Sent()))
	}
}

func TestDispatcherSwallowsTotalFailure(t *testing.T) {
	primary := NewMockProvider()
	primary.SetFailOnSend(true)
	fallback := NewMockProvider()
	fallback.SetFailOnSend(true)
	d := NewDispatcher(testLogger(), primary, fallback)

	if err := d.Send(context.Background(), Message{To: "a@example.com"}); err != nil {
		t.Fatalf("delivery failure must not propagate, got %v", err)
	}
}
