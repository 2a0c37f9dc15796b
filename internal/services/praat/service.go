package praat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"livingroom/internal/config"
	"livingroom/internal/services"
)

// Script file names expected under the configured scripts directory.
const (
	ScriptSplitWAV        = "split_wav_file.praat"
	ScriptVoiceMeasures   = "praat_voice_measures.praat"
	ScriptNumTiers        = "textgrid_numtiers.praat"
	ScriptTierTable       = "textgrid_table.praat"
	ScriptTierNeighbors   = "textgrid_table_neighbors.praat"
	undefinedValue        = "--undefined--"
	defaultCommandTimeout = 30 * time.Minute
)

// Scripts lists every script the service invokes.
var Scripts = []string{ScriptSplitWAV, ScriptVoiceMeasures, ScriptNumTiers, ScriptTierTable, ScriptTierNeighbors}

// Params holds the acoustic measurement settings passed to the voice measures script.
type Params struct {
	Tier         int
	Padding      float64
	WindowLength float64
	Timestep     float64
	MaxDuration  float64
	FormantRefs  []float64
	MaxFormant   float64
	MinF0        float64
	MaxF0        float64
}

// CommandRunner executes name with args and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service invokes Praat scripts.
type Service struct {
	binary        string
	scriptsDir    string
	workDir       string
	timeout       time.Duration
	params        Params
	commandRunner CommandRunner
}

// NewService builds a service from configuration.
func NewService(cfg *config.Config) *Service {
	p := cfg.Praat
	return &Service{
		binary:     p.Binary,
		scriptsDir: p.ScriptsDir,
		workDir:    cfg.Paths.WorkDir,
		timeout:    cfg.PraatTimeout(),
		params: Params{
			Tier:         p.Tier,
			Padding:      p.Padding,
			WindowLength: p.WindowLength,
			Timestep:     p.Timestep,
			MaxDuration:  p.MaxDuration,
			FormantRefs:  append([]float64(nil), p.FormantRefs...),
			MaxFormant:   p.MaxFormant,
			MinF0:        p.MinF0,
			MaxF0:        p.MaxF0,
		},
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Binary returns the configured executable.
func (s *Service) Binary() string {
	return s.binary
}

// ScriptPath returns the absolute path of a named script.
func (s *Service) ScriptPath(name string) string {
	return filepath.Join(s.scriptsDir, name)
}

// run executes one script under the service timeout.
func (s *Service) run(ctx context.Context, operation, script string, args ...string) ([]byte, error) {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullArgs := append([]string{"--run", s.ScriptPath(script)}, args...)
	runner := s.commandRunner
	if runner == nil {
		runner = execRunner
	}
	out, err := runner(runCtx, s.binary, fullArgs...)
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, services.Wrap(services.ErrTimeout, "praat", operation, fmt.Sprintf("no result after %s", timeout), err)
	}
	return nil, services.Wrap(services.ErrExternalTool, "praat", operation, script, err)
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return stdout.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WithTimeout overrides the per-invocation deadline.
func (s *Service) WithTimeout(timeout time.Duration) {
	s.timeout = timeout
}
