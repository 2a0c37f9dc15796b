package merge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"livingroom/internal/casecache"
	"livingroom/internal/creak"
	"livingroom/internal/interval"
	"livingroom/internal/logging"
	"livingroom/internal/services"
	"livingroom/internal/services/praat"
	"livingroom/internal/services/vision"
	"livingroom/internal/stageexec"
	"livingroom/internal/table"
	"livingroom/internal/transcript"
	"livingroom/internal/units"
)

// Source names used by Result.Sources.
const (
	SourceCreak = "creak"
	SourceCV    = "cv"
)

// Acoustics measures case audio and reads its alignments.
type Acoustics interface {
	MeasureCase(ctx context.Context, caseID, audioPath, alignmentsPath string) (*table.Table, error)
	TierTable(ctx context.Context, textgrid string, target int, others ...int) ([]praat.AlignedSegment, error)
	TierNeighbors(ctx context.Context, textgrid string, tier int) ([]units.Neighbor, error)
}

// Detector produces the computer-vision series of a case video.
type Detector interface {
	Detect(ctx context.Context, video string) (*vision.Series, error)
	SmileThreshold() float64
}

// Inputs are the resolved resource paths of one case. Empty paths are absent.
type Inputs struct {
	CaseID         string
	AudioPath      string
	AlignmentsPath string
	TranscriptPath string
	CreakPath      string
	VideoPath      string
}

// Flags select which sources are requested.
type Flags struct {
	Acoustic bool
	Creak    bool
	CV       bool
}

// Result is the outcome of one case. Table is nil unless acoustic measurement
// was requested; Creak and CV are nil when that source was not requested or
// could not be obtained.
type Result struct {
	CaseID    string
	Table     *table.Table
	Creak     []interval.Interval
	CV        *vision.Series
	FromCache bool
	Units     units.Report
}

// Sources returns the independent source tables keyed by source name.
func (r *Result) Sources() map[string]*table.Table {
	out := map[string]*table.Table{}
	if r.Creak != nil {
		out[SourceCreak] = CreakTable(r.Creak)
	}
	if r.CV != nil {
		out[SourceCV] = r.CV.Table()
	}
	return out
}

// Engine builds case tables.
type Engine struct {
	acoustics Acoustics
	detector  Detector
	cache     casecache.Store
	tier      int
	logger    *slog.Logger
	// smileThreshold binarises cached CV series even when no detector is wired.
	smileThreshold float64
}

// DefaultSmileThreshold applies when the engine has no detector.
const DefaultSmileThreshold = 0.5

// NewEngine wires the engine's collaborators. A nil cache disables caching.
func NewEngine(acoustics Acoustics, detector Detector, cache casecache.Store, tier int, logger *slog.Logger) *Engine {
	if cache == nil {
		cache = casecache.Nop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if tier <= 0 {
		tier = 1
	}
	threshold := DefaultSmileThreshold
	if detector != nil {
		threshold = detector.SmileThreshold()
	}
	return &Engine{
		acoustics:      acoustics,
		detector:       detector,
		cache:          cache,
		tier:           tier,
		logger:         logging.NewComponentLogger(logger, "merge"),
		smileThreshold: threshold,
	}
}

// BuildCaseTable runs every requested source for one case and merges them
// onto the acoustic chunk table.
//
// When acoustic measurement is requested the audio and alignment files must
// exist; otherwise the call fails with ErrMissingResource before any tool is
// invoked. Creak, CV and transcript problems are logged and leave their
// columns out. Cancellation is returned as soon as it is observed.
func (e *Engine) BuildCaseTable(ctx context.Context, in Inputs, flags Flags) (*Result, error) {
	if strings.TrimSpace(in.CaseID) == "" {
		return nil, services.Wrap(services.ErrValidation, "merge", "build case", "empty case id", nil)
	}
	ctx = services.WithCaseID(ctx, in.CaseID)
	logger := logging.WithContext(ctx, e.logger)

	if flags.Acoustic {
		if err := requireFiles(in.AudioPath, in.AlignmentsPath); err != nil {
			return nil, err
		}
		cached, ok, err := e.cache.Get(ctx, casecache.NamespaceCases, in.CaseID)
		if err != nil {
			logging.WarnWithContext(logger, "case cache read failed", "cache_read_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "drop the entry with 'livingroom cache drop'"),
				logging.String(logging.FieldImpact, "case is recomputed"))
		} else if ok {
			logger.Info("using cached case table", logging.Int("rows", cached.Len()))
			return &Result{CaseID: in.CaseID, Table: cached, FromCache: true}, nil
		}
	}

	result := &Result{CaseID: in.CaseID}
	if flags.Creak {
		result.Creak = e.loadCreak(logger, in.CreakPath)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if flags.CV {
		series, err := e.loadCV(ctx, logger, in)
		if err != nil {
			return nil, err
		}
		result.CV = series
	}
	if !flags.Acoustic {
		return result, nil
	}

	var measured *table.Table
	err := stageexec.Run(ctx, e.logger, "acoustic", func(ctx context.Context, _ *slog.Logger) error {
		long, err := e.acoustics.MeasureCase(ctx, in.CaseID, in.AudioPath, in.AlignmentsPath)
		if err != nil {
			return err
		}
		measured, err = Pivot(long)
		if err != nil {
			return err
		}
		return AddTimestamps(measured)
	})
	if err != nil {
		return nil, err
	}

	err = stageexec.Run(ctx, e.logger, "enrich", func(ctx context.Context, logger *slog.Logger) error {
		return e.enrich(ctx, logger, measured, in, result)
	})
	if err != nil {
		return nil, err
	}
	result.Table = measured

	if err := e.cache.Put(ctx, casecache.NamespaceCases, in.CaseID, measured); err != nil {
		logging.WarnWithContext(logger, "case cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache_dir permissions"),
			logging.String(logging.FieldImpact, "case will be recomputed next run"))
	}
	return result, nil
}

func (e *Engine) enrich(ctx context.Context, logger *slog.Logger, t *table.Table, in Inputs, result *Result) error {
	neighbors, err := e.acoustics.TierNeighbors(ctx, in.AlignmentsPath, e.tier)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.WarnWithContext(logger, "phone context unavailable", "context_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "prev_phone, next_phone and stress are omitted"))
	} else if err := units.AttachContext(t, neighbors); err != nil {
		return err
	}

	t.SortByFloat(units.ColChunkTimestamp)

	if result.CV != nil {
		if err := AddCV(t, result.CV, e.smileThreshold); err != nil {
			return err
		}
	} else {
		logger.Debug("no computer vision columns added")
	}
	if result.Creak != nil {
		if err := AddCreak(t, result.Creak); err != nil {
			return err
		}
	} else {
		logger.Debug("no creak columns added")
	}

	segments, err := e.acoustics.TierTable(ctx, in.AlignmentsPath, e.tier)
	if err != nil {
		return err
	}
	if err := JoinWords(t, Words(segments)); err != nil {
		return err
	}

	if lines := e.loadTranscript(logger, in.TranscriptPath); lines != nil {
		if err := JoinLines(t, lines); err != nil {
			return err
		}
	}

	report, err := units.Resolve(t, in.CaseID)
	if err != nil {
		return err
	}
	result.Units = report
	for _, skip := range result.Units.Skipped {
		logger.Debug("unit level not resolved", logging.String("level", skip.String()))
	}
	return nil
}

func (e *Engine) loadCreak(logger *slog.Logger, path string) []interval.Interval {
	if strings.TrimSpace(path) == "" {
		logging.WarnWithContext(logger, "no creak results for case", "creak_absent",
			logging.String(logging.FieldErrorHint, "run the creak detector and place its output in creak_dir"),
			logging.String(logging.FieldImpact, "creak_binary is omitted"))
		return nil
	}
	spans, err := creak.Load(path)
	if err != nil {
		logging.WarnWithContext(logger, "creak results unreadable", "creak_unreadable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "creak_binary is omitted"))
		return nil
	}
	if spans == nil {
		spans = []interval.Interval{}
	}
	return spans
}

func (e *Engine) loadCV(ctx context.Context, logger *slog.Logger, in Inputs) (*vision.Series, error) {
	cached, ok, err := e.cache.Get(ctx, casecache.NamespaceCV, in.CaseID)
	if err == nil && ok {
		series, convErr := vision.SeriesFromTable(cached)
		if convErr == nil {
			logger.Debug("using cached cv series", logging.Int("frames", series.Len()))
			return series, nil
		}
		err = convErr
	}
	if err != nil {
		logging.WarnWithContext(logger, "cv cache unreadable", "cv_cache_unreadable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "cv series is recomputed"))
	}

	if strings.TrimSpace(in.VideoPath) == "" || e.detector == nil {
		logging.WarnWithContext(logger, "no video for case", "cv_absent",
			logging.String(logging.FieldErrorHint, "check video_dir and the video extension"),
			logging.String(logging.FieldImpact, "movamp_interp and smiles_interp are omitted"))
		return nil, nil
	}

	var series *vision.Series
	err = stageexec.Run(ctx, e.logger, "cv", func(ctx context.Context, _ *slog.Logger) error {
		var detectErr error
		series, detectErr = e.detector.Detect(ctx, in.VideoPath)
		return detectErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.WarnWithContext(logger, "computer vision failed", "cv_failed",
			logging.String("failure_reason", services.Reason(err)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "movamp_interp and smiles_interp are omitted"))
		return nil, nil
	}
	if err := e.cache.Put(ctx, casecache.NamespaceCV, in.CaseID, series.Table()); err != nil {
		logging.WarnWithContext(logger, "cv cache write failed", "cache_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "interlocutor cv columns will be empty for this speaker's partner"))
	}
	return series, nil
}

func (e *Engine) loadTranscript(logger *slog.Logger, path string) []transcript.Line {
	if strings.TrimSpace(path) == "" {
		logger.Debug("no transcript for case")
		return nil
	}
	lines, err := transcript.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("transcript file missing", logging.String("path", path))
			return nil
		}
		logging.WarnWithContext(logger, "transcript unreadable", "transcript_unreadable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "line columns are omitted"))
		return nil
	}
	if lines == nil {
		lines = []transcript.Line{}
	}
	return lines
}

func requireFiles(audioPath, alignmentsPath string) error {
	var missing []string
	for _, r := range []struct{ name, path string }{{"audio", audioPath}, {"alignments", alignmentsPath}} {
		if strings.TrimSpace(r.path) == "" {
			missing = append(missing, r.name)
			continue
		}
		if _, err := os.Stat(r.path); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", r.name, r.path))
		}
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrMissingResource, "merge", "precondition",
			"required "+strings.Join(missing, ", "), nil)
	}
	return nil
}
