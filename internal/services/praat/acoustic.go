package praat

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"livingroom/internal/services"
	"livingroom/internal/table"
	"livingroom/internal/textutil"
	"livingroom/internal/units"
)

// RequiredMeasureColumns are the columns the voice measures output must carry.
var RequiredMeasureColumns = []string{
	units.ColFilename, units.ColChunk, units.ColMeasure, units.ColValue,
	units.ColSegmentLabel, units.ColSegmentStart, units.ColSegmentEnd,
	units.ColWindowStart, units.ColWindowEnd,
}

// SplitAudio cuts audioPath into one file per labelled interval of the phone
// tier in alignmentsPath, writing the pieces and their TextGrids to destDir.
func (s *Service) SplitAudio(ctx context.Context, audioPath, alignmentsPath, destDir string) error {
	audioAbs, err := filepath.Abs(audioPath)
	if err != nil {
		return fmt.Errorf("split audio: %w", err)
	}
	alignAbs, err := filepath.Abs(alignmentsPath)
	if err != nil {
		return fmt.Errorf("split audio: %w", err)
	}
	destAbs, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("split audio: %w", err)
	}
	args := []string{
		audioAbs, alignAbs, destAbs,
		"1", "1", "1", strconv.Itoa(s.params.Tier), "0", "1",
		formatFloat(s.params.Padding), "_", "_",
	}
	_, err = s.run(ctx, "split audio", ScriptSplitWAV, args...)
	return err
}

// VoiceMeasures runs the measurement script over every WAV/TextGrid pair in
// dir and returns its long-format output (one row per chunk and measure).
func (s *Service) VoiceMeasures(ctx context.Context, dir string) (*table.Table, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("voice measures: %w", err)
	}
	p := s.params
	args := []string{
		abs, ".wav", abs, ".TextGrid",
		strconv.Itoa(p.Tier), formatFloat(p.Padding), formatFloat(p.WindowLength),
		formatFloat(p.Timestep), formatFloat(p.MaxDuration),
	}
	for _, ref := range p.FormantRefs {
		args = append(args, formatFloat(ref))
	}
	args = append(args, formatFloat(p.MaxFormant), formatFloat(p.MinF0), formatFloat(p.MaxF0))

	out, err := s.run(ctx, "voice measures", ScriptVoiceMeasures, args...)
	if err != nil {
		return nil, err
	}
	return ParseMeasures(out)
}

// ParseMeasures reads the voice measures output, treating Praat's undefined
// marker as missing.
func ParseMeasures(out []byte) (*table.Table, error) {
	measures, err := table.ReadTSV(bytes.NewReader(out), table.WithNA(undefinedValue))
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "praat", "voice measures", "unreadable output", err)
	}
	if !measures.HasAll(RequiredMeasureColumns...) {
		return nil, services.Wrap(services.ErrMalformedInput, "praat", "voice measures",
			fmt.Sprintf("output columns %v lack one of %v", measures.Columns(), RequiredMeasureColumns), nil)
	}
	return measures, nil
}

// MeasureCase splits the case audio into a private scratch directory under
// the work dir, measures it, and removes the scratch directory.
func (s *Service) MeasureCase(ctx context.Context, caseID, audioPath, alignmentsPath string) (*table.Table, error) {
	scratch := filepath.Join(s.workDir, textutil.PathToken(caseID))
	if err := os.RemoveAll(scratch); err != nil {
		return nil, fmt.Errorf("measure case: clear scratch: %w", err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("measure case: create scratch: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := s.SplitAudio(ctx, audioPath, alignmentsPath, scratch); err != nil {
		return nil, err
	}
	return s.VoiceMeasures(ctx, scratch)
}
