package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected no logger on empty context, got %v", got)
	}

	logger := FromZap(zap.NewNop())
	ctx := ContextWithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatal("expected logger to be retrievable from context")
	}

	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatal("nil logger must leave the context untouched")
	}
}

func TestFromZapForwardsAttributes(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := FromZap(zap.New(core))

	logger.With("service", "BookingService").Info("booking created", "booking_id", "b-1")
	logger.Debug("dropped below level")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Message != "booking created" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	fields := entry.ContextMap()
	if fields["service"] != "BookingService" || fields["booking_id"] != "b-1" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestNewBuildsLoggerForEachEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		logger, sync, err := New(env)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", env, err)
		}
		if logger == nil || sync == nil {
			t.Fatalf("New(%q) returned nil logger or sync func", env)
		}
	}
}
