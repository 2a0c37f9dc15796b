package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"livingroom/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains corpus and working directory configuration. Subdirectories
// that are not absolute are resolved against CorpusRoot.
type Paths struct {
	CorpusRoot     string `toml:"corpus_root"`
	AudioDir       string `toml:"audio_dir"`
	VideoDir       string `toml:"video_dir"`
	AnnotationsDir string `toml:"annotations_dir"`
	CreakDir       string `toml:"creak_dir"`
	WorkDir        string `toml:"work_dir"`
	CacheDir       string `toml:"cache_dir"`
	LogDir         string `toml:"log_dir"`
}

// Extensions maps each per-case resource to the file suffix used to find it.
type Extensions struct {
	Audio      string `toml:"audio"`
	Video      string `toml:"video"`
	Alignments string `toml:"alignments"`
	Transcript string `toml:"transcript"`
	Creak      string `toml:"creak"`
}

// Patterns contains the filename conventions used to enumerate cases and
// resolve their resources.
type Patterns struct {
	// CaseFilename matches recording filenames; non-matching files are skipped.
	CaseFilename string `toml:"case_filename"`
	// CaseID is a regexp.Expand template applied to CaseFilename matches.
	CaseID string `toml:"case_id"`
	// CaseSource selects which directory is scanned: audio, video or annotations.
	CaseSource string `toml:"case_source"`
	// UniqueID splits a case ID into its named session and speaker groups.
	UniqueID string `toml:"unique_id"`
	// Resource is a regular expression with SESSION and USER placeholders.
	Resource   string     `toml:"resource"`
	Extensions Extensions `toml:"extensions"`
}

// Praat contains configuration for the acoustic analysis tool.
type Praat struct {
	Binary         string    `toml:"binary"`
	ScriptsDir     string    `toml:"scripts_dir"`
	TimeoutSeconds int       `toml:"timeout_seconds"`
	Tier           int       `toml:"tier"`
	Padding        float64   `toml:"padding"`
	WindowLength   float64   `toml:"window_length"`
	Timestep       float64   `toml:"timestep"`
	MaxDuration    float64   `toml:"max_duration"`
	FormantRefs    []float64 `toml:"formant_refs"`
	MaxFormant     float64   `toml:"max_formant"`
	MinF0          float64   `toml:"min_f0"`
	MaxF0          float64   `toml:"max_f0"`
}

// Vision contains configuration for the face/smile detector.
type Vision struct {
	Command        string  `toml:"command"`
	Script         string  `toml:"script"`
	FaceCascade    string  `toml:"face_cascade"`
	SmileCascade   string  `toml:"smile_cascade"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Standardize    bool    `toml:"standardize"`
	SmileThreshold float64 `toml:"smile_threshold"`
}

// Pipeline contains the default source selection for a run.
type Pipeline struct {
	Acoustic bool `toml:"acoustic"`
	Creak    bool `toml:"creak"`
	CV       bool `toml:"cv"`
}

// Offsets contains configuration for cross-recording offset estimation.
type Offsets struct {
	Enabled          bool `toml:"enabled"`
	TimeLimitSeconds int  `toml:"time_limit_seconds"`
}

// Cache contains configuration for the case result cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Backend string `toml:"backend"`
}

// Metadata contains the survey and session roster exports used for adornment.
type Metadata struct {
	SurveyPath            string `toml:"survey_path"`
	SurveyHeaderPath      string `toml:"survey_header_path"`
	SessionInfoPath       string `toml:"session_info_path"`
	SessionInfoHeaderPath string `toml:"session_info_header_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for livingroom.
//
// Configuration sections by subsystem:
//   - Paths: corpus root and per-resource directories
//   - Patterns: filename conventions for cases and resources
//   - Praat: acoustic analysis executable, scripts and parameters
//   - Vision: smile/motion detector command
//   - Pipeline: default source selection
//   - Offsets: cross-correlation offset estimation
//   - Cache: case result cache backend
//   - Metadata: survey and roster exports
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Patterns Patterns `toml:"patterns"`
	Praat    Praat    `toml:"praat"`
	Vision   Vision   `toml:"vision"`
	Pipeline Pipeline `toml:"pipeline"`
	Offsets  Offsets  `toml:"offsets"`
	Cache    Cache    `toml:"cache"`
	Metadata Metadata `toml:"metadata"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/livingroom/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("livingroom.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories the pipeline writes to.
// Corpus directories are inputs and are never created.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PraatTimeout returns the per-invocation deadline for the acoustic tool.
func (c *Config) PraatTimeout() time.Duration {
	return time.Duration(c.Praat.TimeoutSeconds) * time.Second
}

// VisionTimeout returns the per-invocation deadline for the CV detector.
func (c *Config) VisionTimeout() time.Duration {
	return time.Duration(c.Vision.TimeoutSeconds) * time.Second
}

// OffsetTimeLimit returns how much of each recording is correlated. Zero means
// the full recording.
func (c *Config) OffsetTimeLimit() time.Duration {
	return time.Duration(c.Offsets.TimeLimitSeconds) * time.Second
}

// SourceDir returns the directory scanned for case enumeration.
func (c *Config) SourceDir() string {
	switch c.Patterns.CaseSource {
	case SourceVideo:
		return c.Paths.VideoDir
	case SourceAnnotations:
		return c.Paths.AnnotationsDir
	default:
		return c.Paths.AudioDir
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path. Unless
// overwrite is set, an existing file is left alone and fileutil.ErrExists is
// returned.
func CreateSample(path string, overwrite bool) error {
	write := fileutil.WriteOnce
	if overwrite {
		write = fileutil.WriteAtomic
	}
	return write(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, sampleConfig)
		return err
	})
}
