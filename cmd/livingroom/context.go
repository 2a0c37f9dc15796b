package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"livingroom/internal/casecache"
	"livingroom/internal/config"
	"livingroom/internal/fileutil"
	"livingroom/internal/logging"
	"livingroom/internal/merge"
	"livingroom/internal/orchestrator"
	"livingroom/internal/services/praat"
	"livingroom/internal/services/vision"
	"livingroom/internal/table"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// pipeline bundles the collaborators of a corpus run.
type pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	cache  casecache.Store
	orch   *orchestrator.Orchestrator
}

func (c *commandContext) openPipeline() (*pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	layout, err := orchestrator.NewLayout(cfg)
	if err != nil {
		return nil, err
	}
	cache, err := casecache.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open case cache: %w", err)
	}
	engine := merge.NewEngine(praat.NewService(cfg), vision.NewService(cfg), cache, cfg.Praat.Tier, logger)
	return &pipeline{
		cfg:    cfg,
		logger: logger,
		cache:  cache,
		orch:   orchestrator.New(cfg, layout, engine, cache, logger),
	}, nil
}

func (p *pipeline) Close() error {
	return p.cache.Close()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// writeOutput streams to out, or atomically replaces path when one is given.
func writeOutput(out io.Writer, path string, fn func(io.Writer) error) error {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return fn(out)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(expanded, 0o644, fn)
}

func writeTable(out io.Writer, path string, t *table.Table) error {
	return writeOutput(out, path, t.WriteTSV)
}

// openInput returns stdin for "" or "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
