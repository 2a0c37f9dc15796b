package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"livingroom/internal/casecache"
	"livingroom/internal/config"
	"livingroom/internal/logging"
	"livingroom/internal/table"
	"livingroom/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("LIVINGROOM_CORPUS_ROOT", "")
	t.Setenv("LIVINGROOM_PRAAT", "")
	t.Setenv("HOME", t.TempDir())

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.CorpusRoot)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestCasesListsResolvedResources(t *testing.T) {
	env := setupCLITestEnv(t)
	paths := env.cfg.Paths
	testsupport.WriteFile(t, filepath.Join(paths.AudioDir, "20150101_INT008_003M_FAM_CHA.wav"), "")
	testsupport.WriteFile(t, filepath.Join(paths.AudioDir, "20150101_INT008_004F_FAM_CHA.wav"), "")
	testsupport.WriteFile(t, filepath.Join(paths.AudioDir, "notes.txt"), "")
	testsupport.WriteFile(t, filepath.Join(paths.AnnotationsDir, "20150101_INT008_003M_FAM_CHA.TextGrid"), "")

	out, _, err := runCLI(t, []string{"cases"}, env.configPath, "")
	if err != nil {
		t.Fatalf("cases: %v", err)
	}
	requireContains(t, out, "INT008_003")
	requireContains(t, out, "INT008_004")
	if strings.Contains(out, "notes") {
		t.Fatalf("non-case file listed:\n%s", out)
	}
}

func TestRunWithoutCasesFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "--skip-preflight"}, env.configPath, "")
	if err == nil || !strings.Contains(err.Error(), "no cases found") {
		t.Fatalf("expected no cases error, got %v", err)
	}
}

func TestRunRefusesWhenPreflightFails(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.AudioDir, "20150101_INT008_003M_FAM_CHA.wav"), "")

	_, _, err := runCLI(t, []string{"run"}, env.configPath, "")
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("expected preflight failure for missing praat scripts, got %v", err)
	}
}

func TestRunNonAcousticEmitsEmptyCorpus(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.AudioDir, "20150101_INT008_003M_FAM_CHA.wav"), "")
	output := filepath.Join(t.TempDir(), "corpus.tsv")

	_, stderr, err := runCLI(t, []string{"run", "--skip-preflight", "--no-acoustic", "--no-cv", "--no-offsets", "-o", output}, env.configPath, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, stderr, "0 completed")
	requireContains(t, stderr, "no_acoustic_table")
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
}

func TestDoctorReportsMissingScripts(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected doctor to fail without praat scripts")
	}
	requireContains(t, out, "Praat")
	requireContains(t, out, "FAIL")
}

func TestWordsCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"words"}, "", "The cat the\nCAT dog\n")
	if err != nil {
		t.Fatalf("words: %v", err)
	}
	if out != "cat\t2\nthe\t2\ndog\t1\n" {
		t.Fatalf("unexpected words output %q", out)
	}
}

func TestSummarizeCommand(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "corpus.tsv"),
		"segment_id\tF0\tcreak_binary\n1\t100\tTrue\n1\t300\tTrue\n2\t50\tFalse\n")
	out, _, err := runCLI(t, []string{"summarize", path}, "", "")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	got, err := table.ReadTSV(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse summary: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d:\n%s", got.Len(), out)
	}
	if got.Get(0, "F0").FloatOr(0) != 200 {
		t.Fatalf("unexpected median in %q", out)
	}
}

func TestTranscriptConvertCommand(t *testing.T) {
	input := "<u>1.0<e>2.5<s>A<t>hello there<x>\n<u>3.0<e>4.0<s>B<t>hi<x>\n"
	out, _, err := runCLI(t, []string{"transcript", "convert", "-", "--speaker", "A"}, "", input)
	if err != nil {
		t.Fatalf("transcript convert: %v", err)
	}
	requireContains(t, out, "hello there")
	if strings.Contains(out, "hi\n") {
		t.Fatalf("other speaker kept:\n%s", out)
	}
}

func TestOffsetCommand(t *testing.T) {
	const rate = 1000
	dir := t.TempDir()
	a := testsupport.Noise(7, 6*rate)
	b := testsupport.Delay(a, rate)
	pathA := testsupport.WriteWAV(t, filepath.Join(dir, "a.wav"), a, rate)
	pathB := testsupport.WriteWAV(t, filepath.Join(dir, "b.wav"), b, rate)

	out, _, err := runCLI(t, []string{"offset", pathA, pathB, "--time-limit", "0"}, "", "")
	if err != nil {
		t.Fatalf("offset: %v", err)
	}
	got, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		t.Fatalf("parse offset %q: %v", out, err)
	}
	if math.Abs(got-(-1)) > 1.0/rate {
		t.Fatalf("offset = %v, want -1", got)
	}
}

func TestCacheListAndDrop(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCacheBackend(config.CacheBackendFile))
	store, err := casecache.Open(env.cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	entry := table.New("time")
	_ = entry.AppendRow(table.Float(0.5))
	if err := store.Put(context.Background(), casecache.NamespaceCV, "INT008_003", entry); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = store.Close()

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "INT008_003")

	out, _, err = runCLI(t, []string{"cache", "drop", casecache.NamespaceCV, "INT008_003"}, env.configPath, "")
	if err != nil {
		t.Fatalf("cache drop: %v", err)
	}
	requireContains(t, out, "Dropped")

	if _, _, err := runCLI(t, []string{"cache", "drop", casecache.NamespaceCV, "INT008_003"}, env.configPath, ""); err == nil {
		t.Fatal("expected error dropping a missing entry")
	}
}
