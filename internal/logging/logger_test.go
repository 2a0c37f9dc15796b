package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"livingroom/internal/config"
	"livingroom/internal/logging"
	"livingroom/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	logging.NewComponentLogger(logger, "orchestrator").Debug("below configured level")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("run log should hold one JSON record: %v (%q)", err, data)
	}
	if payload["msg"] != "hello from test" {
		t.Fatalf("unexpected record %v", payload)
	}
}

func TestConsoleHandlerHoistsComponentAndCase(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithCaseID(context.Background(), "INT008_003")
	ctx = services.WithStage(ctx, "creak")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "merge")).
		Info("creak intervals loaded", logging.Int("intervals", 4))
	logger.Debug("hidden")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line should be filtered at info level: %q", line)
	}
	for _, fragment := range []string{"INFO merge [INT008_003/creak]: creak intervals loaded", "intervals=4"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, "case_id=") || strings.Contains(line, "stage=") {
		t.Fatalf("case id and stage should be hoisted out of key/values: %q", line)
	}
}

func TestJSONHandlerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "cv series missing", "cv_absent")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("unexpected level %v", payload["level"])
	}
	if payload[logging.FieldEventType] != "cv_absent" {
		t.Fatalf("unexpected event type %v", payload[logging.FieldEventType])
	}
	for _, key := range []string{"ts", logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected %q in %v", key, payload)
		}
	}
}

func TestErrorWithContextKeepsCallerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "run aborted", "run_aborted",
		logging.String(logging.FieldErrorHint, "fix the roster"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "error" || payload[logging.FieldEventType] != "run_aborted" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload[logging.FieldErrorHint] != "fix the roster" {
		t.Fatalf("caller hint overridden: %v", payload[logging.FieldErrorHint])
	}
	if payload[logging.FieldImpact] == "" || payload[logging.FieldImpact] == nil {
		t.Fatalf("expected default impact in %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "test")
	logger.Info("discarded")
	if logger.Enabled(context.Background(), 8) {
		t.Fatal("nop logger should not be enabled")
	}
}
