package services_test

import (
	"context"
	"testing"

	"livingroom/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCaseID(ctx, "INT008_003")
	ctx = services.WithStage(ctx, "acoustic")
	ctx = services.WithRequestID(ctx, "run-123")

	if id, ok := services.CaseIDFromContext(ctx); !ok || id != "INT008_003" {
		t.Fatalf("unexpected case id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "acoustic" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithCaseID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.CaseIDFromContext(ctx); ok {
		t.Fatal("expected no case id value")
	}
}
