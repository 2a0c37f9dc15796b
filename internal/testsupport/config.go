package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"livingroom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose corpus, work, cache and log directories
// live under a unique temp directory. Corpus subdirectories are created empty.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	root := filepath.Join(base, "corpus")
	cfgVal.Paths.CorpusRoot = root
	cfgVal.Paths.AudioDir = filepath.Join(root, "audio")
	cfgVal.Paths.VideoDir = filepath.Join(root, "video")
	cfgVal.Paths.AnnotationsDir = filepath.Join(root, "annotations")
	cfgVal.Paths.CreakDir = filepath.Join(root, "creak")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Praat.ScriptsDir = filepath.Join(base, "praat")

	for _, dir := range []string{
		cfgVal.Paths.AudioDir, cfgVal.Paths.VideoDir, cfgVal.Paths.AnnotationsDir,
		cfgVal.Paths.CreakDir, cfgVal.Praat.ScriptsDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCacheBackend selects the case cache backend.
func WithCacheBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = true
		b.cfg.Cache.Backend = backend
	}
}

// WithoutCache disables the case cache.
func WithoutCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external tools are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.Praat.Binary, b.cfg.Vision.Command}
		}
		for _, name := range names {
			WriteStub(b.t, b.baseDir, name, "exit 0\n")
		}
		prependPath(b.t, filepath.Join(b.baseDir, "bin"))
	}
}

// WithStubScript installs a named stub whose shell body is script and puts it on PATH.
func WithStubScript(name, script string) ConfigOption {
	return func(b *configBuilder) {
		WriteStub(b.t, b.baseDir, name, script)
		prependPath(b.t, filepath.Join(b.baseDir, "bin"))
	}
}

// WriteStub writes an executable /bin/sh script into base/bin and returns its path.
func WriteStub(t testing.TB, base, name, script string) string {
	t.Helper()
	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

func prependPath(t testing.TB, dir string) {
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
