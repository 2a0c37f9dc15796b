package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"livingroom/internal/services/praat"
	"livingroom/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryReadable(t *testing.T) {
	if result := CheckDirectoryReadable("corpus", t.TempDir()); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckDirectoryReadable("corpus", ""); result.Passed || result.Detail != "not configured" {
		t.Fatalf("expected unconfigured failure, got %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ReadyConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	for _, script := range praat.Scripts {
		testsupport.WriteFile(t, filepath.Join(cfg.Praat.ScriptsDir, script), "form x\nendform\n")
	}

	results := RunAll(cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected no failed checks, got %+v", failed)
	}
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Corpus root", "Work directory", "Praat", praat.ScriptVoiceMeasures} {
		if !names[want] {
			t.Errorf("missing check %q in %+v", want, results)
		}
	}
}

func TestRunAll_MissingScriptsFail(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	failed := Failed(RunAll(cfg))
	if len(failed) != len(praat.Scripts) {
		t.Fatalf("expected %d failed script checks, got %+v", len(praat.Scripts), failed)
	}
}

func TestRunAll_AcousticDisabledSkipsPraat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Pipeline.Acoustic = false
	cfg.Pipeline.CV = false
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	for _, r := range RunAll(cfg) {
		if r.Name == "Praat" {
			t.Fatalf("praat checked with acoustic disabled")
		}
	}
}
