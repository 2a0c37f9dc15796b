package stageexec_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"livingroom/internal/logging"
	"livingroom/internal/services"
	"livingroom/internal/stageexec"
)

func TestRunStampsStageAndLogsCompletion(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "stage.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	var seenStage string
	err = stageexec.Run(context.Background(), logger, "pivot", func(ctx context.Context, _ *slog.Logger) error {
		seenStage, _ = services.StageFromContext(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if seenStage != "pivot" {
		t.Fatalf("expected stage on context, got %q", seenStage)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", data, err)
	}
	if record["msg"] != "stage completed" || record[logging.FieldStage] != "pivot" {
		t.Fatalf("expected completion log for pivot, got %v", record)
	}
	if record[logging.FieldEventType] != "stage_complete" {
		t.Fatalf("unexpected event type %v", record[logging.FieldEventType])
	}
}

func TestRunPassesErrorsThrough(t *testing.T) {
	cause := services.Wrap(services.ErrMalformedInput, "timestamps", "parse", "no token", nil)
	err := stageexec.Run(context.Background(), logging.NewNop(), "timestamps", func(context.Context, *slog.Logger) error {
		return cause
	})
	if !errors.Is(err, services.ErrMalformedInput) {
		t.Fatalf("expected marker preserved, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = stageexec.Run(ctx, logging.NewNop(), "acoustic", func(ctx context.Context, _ *slog.Logger) error {
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to propagate, got %v", err)
	}
}
