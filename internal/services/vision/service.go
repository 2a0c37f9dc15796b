package vision

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"livingroom/internal/config"
	"livingroom/internal/services"
)

const defaultCommandTimeout = time.Hour

// CommandRunner executes name with args and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service invokes the smile/motion detector.
type Service struct {
	command        string
	script         string
	faceCascade    string
	smileCascade   string
	timeout        time.Duration
	standardize    bool
	smileThreshold float64
	commandRunner  CommandRunner
}

// NewService builds a service from configuration.
func NewService(cfg *config.Config) *Service {
	v := cfg.Vision
	return &Service{
		command:        v.Command,
		script:         v.Script,
		faceCascade:    v.FaceCascade,
		smileCascade:   v.SmileCascade,
		timeout:        cfg.VisionTimeout(),
		standardize:    v.Standardize,
		smileThreshold: v.SmileThreshold,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// WithTimeout overrides the per-invocation deadline.
func (s *Service) WithTimeout(timeout time.Duration) {
	s.timeout = timeout
}

// Command returns the configured executable.
func (s *Service) Command() string {
	return s.command
}

// SmileThreshold returns the interpolated smile level above which a chunk counts as smiling.
func (s *Service) SmileThreshold() float64 {
	return s.smileThreshold
}

// Detect runs the detector over video and parses its frame series.
func (s *Service) Detect(ctx context.Context, video string) (*Series, error) {
	if strings.TrimSpace(video) == "" {
		return nil, services.Wrap(services.ErrMissingResource, "vision", "detect", "no video path", nil)
	}
	timeout := s.timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var args []string
	for _, arg := range []string{s.script, video, s.faceCascade, s.smileCascade} {
		if strings.TrimSpace(arg) != "" {
			args = append(args, arg)
		}
	}
	runner := s.commandRunner
	if runner == nil {
		runner = execRunner
	}
	out, err := runner(runCtx, s.command, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "vision", "detect", fmt.Sprintf("no result after %s", timeout), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "vision", "detect", video, err)
	}

	series, err := ParseOutput(out)
	if err != nil {
		return nil, err
	}
	if s.standardize {
		series.Standardize()
	}
	return series, nil
}

// ParseOutput reads "time \t movamp \t smile" lines. Fields may carry
// surrounding spaces; the smile flag is True/False or 1/0.
func ParseOutput(out []byte) (*Series, error) {
	series := &Series{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, malformedLine(lineNo, line)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, malformedLine(lineNo, line)
		}
		movamp, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, malformedLine(lineNo, line)
		}
		smiling, ok := parseFlag(fields[2])
		if !ok {
			return nil, malformedLine(lineNo, line)
		}
		series.Append(t, movamp, smiling)
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "vision", "parse", "read output", err)
	}
	if series.Len() == 0 {
		return nil, services.Wrap(services.ErrMalformedInput, "vision", "parse", "detector produced no frames", nil)
	}
	series.sortByTime()
	return series, nil
}

func parseFlag(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

func malformedLine(lineNo int, line string) error {
	return services.Wrap(services.ErrMalformedInput, "vision", "parse", fmt.Sprintf("line %d: %q", lineNo, line), nil)
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
