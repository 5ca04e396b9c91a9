package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInit_NoEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Service: "chat-service"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	fields := otel.GetTextMapPropagator().Fields()
	found := false
	for _, f := range fields {
		if f == "traceparent" {
			found = true
		}
	}
	if !found {
		t.Fatalf("trace context propagator not installed: %v", fields)
	}
}

func TestInit_WithEndpoint(t *testing.T) {
	// экспортёр создаётся лениво, соединение не требуется
	shutdown, err := Init(context.Background(), Config{Endpoint: "127.0.0.1:1", SampleRatio: 0.5, Service: "chat-service"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
