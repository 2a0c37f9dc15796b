package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"livingroom/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "acoustic", "voice measures", "praat failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"acoustic", "voice measures", "praat failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsFatalClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"interrupt", fmt.Errorf("acoustic: %w", context.Canceled), true},
		{"identity", services.Wrap(services.ErrAmbiguousIdentity, "metadata", "roster", "no slot", nil), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "orchestrator", "pattern", "bad", nil), true},
		{"missing resource", services.Wrap(services.ErrMissingResource, "merge", "resolve", "no audio", nil), false},
		{"malformed", services.Wrap(services.ErrMalformedInput, "merge", "timestamp", "no token", nil), false},
		{"timeout", services.Wrap(services.ErrTimeout, "acoustic", "praat", "deadline", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsFatal(tt.err); got != tt.fatal {
				t.Fatalf("IsFatal(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

func TestReasonLabels(t *testing.T) {
	if got := services.Reason(services.Wrap(services.ErrMissingResource, "", "", "x", nil)); got != "missing_resource" {
		t.Fatalf("unexpected reason %q", got)
	}
	if got := services.Reason(context.DeadlineExceeded); got != "timeout" {
		t.Fatalf("unexpected reason %q", got)
	}
	if got := services.Reason(errors.New("other")); got != "error" {
		t.Fatalf("unexpected reason %q", got)
	}
}
