package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePatterns()
	if err := c.normalizePraat(); err != nil {
		return err
	}
	if err := c.normalizeVision(); err != nil {
		return err
	}
	if err := c.normalizeMetadata(); err != nil {
		return err
	}
	c.normalizeOffsets()
	c.normalizeCache()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("LIVINGROOM_CORPUS_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.CorpusRoot = strings.TrimSpace(value)
	}
	if c.Paths.CorpusRoot, err = expandPath(strings.TrimSpace(c.Paths.CorpusRoot)); err != nil {
		return fmt.Errorf("paths.corpus_root: %w", err)
	}
	corpusDirs := []struct {
		key   string
		value *string
	}{
		{"paths.audio_dir", &c.Paths.AudioDir},
		{"paths.video_dir", &c.Paths.VideoDir},
		{"paths.annotations_dir", &c.Paths.AnnotationsDir},
		{"paths.creak_dir", &c.Paths.CreakDir},
	}
	for _, dir := range corpusDirs {
		if *dir.value, err = c.corpusPath(*dir.value); err != nil {
			return fmt.Errorf("%s: %w", dir.key, err)
		}
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// corpusPath resolves a corpus subdirectory; relative values hang off CorpusRoot.
func (c *Config) corpusPath(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if !filepath.IsAbs(value) && !strings.HasPrefix(value, "~") && c.Paths.CorpusRoot != "" {
		value = filepath.Join(c.Paths.CorpusRoot, value)
	}
	return expandPath(value)
}

func (c *Config) normalizePatterns() {
	c.Patterns.CaseSource = strings.ToLower(strings.TrimSpace(c.Patterns.CaseSource))
	if c.Patterns.CaseSource == "" {
		c.Patterns.CaseSource = SourceAudio
	}
	c.Patterns.CaseID = strings.TrimSpace(c.Patterns.CaseID)
	ext := &c.Patterns.Extensions
	for _, value := range []*string{&ext.Audio, &ext.Video, &ext.Alignments, &ext.Transcript, &ext.Creak} {
		*value = strings.TrimSpace(*value)
		if *value != "" && !strings.HasPrefix(*value, ".") {
			*value = "." + *value
		}
	}
}

func (c *Config) normalizePraat() error {
	if value, ok := os.LookupEnv("LIVINGROOM_PRAAT"); ok && strings.TrimSpace(value) != "" {
		c.Praat.Binary = strings.TrimSpace(value)
	}
	c.Praat.Binary = strings.TrimSpace(c.Praat.Binary)
	if c.Praat.Binary == "" {
		c.Praat.Binary = defaultPraatBinary
	}
	var err error
	if c.Praat.ScriptsDir, err = expandPath(strings.TrimSpace(c.Praat.ScriptsDir)); err != nil {
		return fmt.Errorf("praat.scripts_dir: %w", err)
	}
	if c.Praat.TimeoutSeconds <= 0 {
		c.Praat.TimeoutSeconds = defaultPraatTimeout
	}
	return nil
}

func (c *Config) normalizeVision() error {
	c.Vision.Command = strings.TrimSpace(c.Vision.Command)
	if c.Vision.Command == "" {
		c.Vision.Command = defaultVisionCommand
	}
	var err error
	if c.Vision.Script, err = expandPath(strings.TrimSpace(c.Vision.Script)); err != nil {
		return fmt.Errorf("vision.script: %w", err)
	}
	if c.Vision.FaceCascade, err = expandPath(strings.TrimSpace(c.Vision.FaceCascade)); err != nil {
		return fmt.Errorf("vision.face_cascade: %w", err)
	}
	if c.Vision.SmileCascade, err = expandPath(strings.TrimSpace(c.Vision.SmileCascade)); err != nil {
		return fmt.Errorf("vision.smile_cascade: %w", err)
	}
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeout
	}
	return nil
}

func (c *Config) normalizeMetadata() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"metadata.survey_path", &c.Metadata.SurveyPath},
		{"metadata.survey_header_path", &c.Metadata.SurveyHeaderPath},
		{"metadata.session_info_path", &c.Metadata.SessionInfoPath},
		{"metadata.session_info_header_path", &c.Metadata.SessionInfoHeaderPath},
	}
	for _, field := range fields {
		resolved, err := c.corpusPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = resolved
	}
	return nil
}

func (c *Config) normalizeOffsets() {
	if c.Offsets.TimeLimitSeconds < 0 {
		c.Offsets.TimeLimitSeconds = 0
	}
}

func (c *Config) normalizeCache() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendFile
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
