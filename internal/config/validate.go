package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePatterns(); err != nil {
		return err
	}
	if err := c.validatePraat(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CorpusRoot) == "" {
		return errors.New("paths.corpus_root must be set (or LIVINGROOM_CORPUS_ROOT)")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set when cache.enabled is true")
	}
	return nil
}

func (c *Config) validatePatterns() error {
	switch c.Patterns.CaseSource {
	case SourceAudio, SourceVideo, SourceAnnotations:
	default:
		return fmt.Errorf("patterns.case_source must be one of audio, video, annotations (got %q)", c.Patterns.CaseSource)
	}
	if c.Patterns.CaseID == "" {
		return errors.New("patterns.case_id must be set")
	}
	if _, err := regexp.Compile(c.Patterns.CaseFilename); err != nil {
		return fmt.Errorf("patterns.case_filename: %w", err)
	}
	unique, err := regexp.Compile(c.Patterns.UniqueID)
	if err != nil {
		return fmt.Errorf("patterns.unique_id: %w", err)
	}
	if unique.SubexpIndex("session") < 0 || unique.SubexpIndex("speaker") < 0 {
		return errors.New("patterns.unique_id must define named groups session and speaker")
	}
	if !strings.Contains(c.Patterns.Resource, "SESSION") || !strings.Contains(c.Patterns.Resource, "USER") {
		return errors.New("patterns.resource must contain SESSION and USER placeholders")
	}
	sample := strings.NewReplacer("SESSION", "x", "USER", "x").Replace(c.Patterns.Resource)
	if _, err := regexp.Compile(sample); err != nil {
		return fmt.Errorf("patterns.resource: %w", err)
	}
	ext := c.Patterns.Extensions
	if ext.Audio == "" || ext.Alignments == "" {
		return errors.New("patterns.extensions.audio and patterns.extensions.alignments must be set")
	}
	return nil
}

func (c *Config) validatePraat() error {
	if len(c.Praat.FormantRefs) != 5 {
		return fmt.Errorf("praat.formant_refs must list 5 reference formants (got %d)", len(c.Praat.FormantRefs))
	}
	if c.Praat.Timestep <= 0 || c.Praat.WindowLength <= 0 {
		return errors.New("praat.timestep and praat.window_length must be positive")
	}
	if c.Praat.MinF0 <= 0 || c.Praat.MaxF0 <= c.Praat.MinF0 {
		return errors.New("praat.min_f0 must be positive and below praat.max_f0")
	}
	return nil
}

func (c *Config) validateVision() error {
	if c.Vision.SmileThreshold < 0 || c.Vision.SmileThreshold > 1 {
		return errors.New("vision.smile_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	m := c.Metadata
	if (m.SurveyPath == "") != (m.SurveyHeaderPath == "") {
		return errors.New("metadata.survey_path and metadata.survey_header_path must be set together")
	}
	if (m.SessionInfoPath == "") != (m.SessionInfoHeaderPath == "") {
		return errors.New("metadata.session_info_path and metadata.session_info_header_path must be set together")
	}
	return nil
}

// HasMetadata reports whether both metadata exports are configured.
func (c *Config) HasMetadata() bool {
	return c.Metadata.SurveyPath != "" && c.Metadata.SessionInfoPath != ""
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendSQLite:
		return nil
	default:
		return fmt.Errorf("cache.backend must be file or sqlite (got %q)", c.Cache.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	return nil
}
