package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"livingroom/internal/config"
	"livingroom/internal/fileutil"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigValidateCommand(ctx), newConfigInitCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the annotated sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			err = config.CreateSample(target, overwrite)
			if errors.Is(err, fileutil.ErrExists) {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			}
			if err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit paths.corpus_root and the [patterns] section to match your corpus layout.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		return config.ExpandPath(target)
	}
	return config.DefaultConfigPath()
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and report the resolved corpus layout",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(strings.TrimSpace(*ctx.configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			source := "defaults"
			if exists {
				source = path
			}
			rows := [][]string{
				{"config", source},
				{"corpus root", cfg.Paths.CorpusRoot},
				{"cases from", cfg.SourceDir()},
				{"work dir", cfg.Paths.WorkDir},
				{"cache", cacheSummary(cfg)},
				{"sources", sourceSummary(cfg)},
				{"metadata", yesNo(cfg.HasMetadata())},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows))
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}
}

func cacheSummary(cfg *config.Config) string {
	if !cfg.Cache.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("%s (%s)", cfg.Cache.Backend, cfg.Paths.CacheDir)
}

func sourceSummary(cfg *config.Config) string {
	var on []string
	for _, s := range []struct {
		name    string
		enabled bool
	}{
		{"acoustic", cfg.Pipeline.Acoustic},
		{"creak", cfg.Pipeline.Creak},
		{"cv", cfg.Pipeline.CV},
	} {
		if s.enabled {
			on = append(on, s.name)
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ", ")
}
