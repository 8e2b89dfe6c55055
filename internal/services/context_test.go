package services_test

import (
	"context"
	"testing"

	"substweet/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithCaptionID(ctx, 42)
	ctx = services.WithComponent(ctx, "scheduler")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if id, ok := services.CaptionIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected caption id: %v %v", id, ok)
	}
	if component, ok := services.ComponentFromContext(ctx); !ok || component != "scheduler" {
		t.Fatalf("unexpected component: %v %v", component, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithComponent(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.ComponentFromContext(ctx); ok {
		t.Fatal("expected no component value")
	}
	if _, ok := services.CaptionIDFromContext(ctx); ok {
		t.Fatal("expected no caption id value")
	}
}
