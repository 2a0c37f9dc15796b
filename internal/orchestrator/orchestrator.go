package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"livingroom/internal/casecache"
	"livingroom/internal/config"
	"livingroom/internal/logging"
	"livingroom/internal/merge"
	"livingroom/internal/services"
	"livingroom/internal/table"
	"livingroom/internal/units"
)

// CaseBuilder builds one case table.
type CaseBuilder interface {
	BuildCaseTable(ctx context.Context, in merge.Inputs, flags merge.Flags) (*merge.Result, error)
}

// Options select the sources and corpus-level steps of a run.
type Options struct {
	Flags   merge.Flags
	Offsets bool
	// OnCase, when set, is called after each case with its error (nil on success).
	OnCase func(caseID string, err error)
}

// OptionsFromConfig returns the configured defaults.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Flags: merge.Flags{
			Acoustic: cfg.Pipeline.Acoustic,
			Creak:    cfg.Pipeline.Creak,
			CV:       cfg.Pipeline.CV,
		},
		Offsets: cfg.Offsets.Enabled,
	}
}

// Dropped records a case that produced no table.
type Dropped struct {
	CaseID string
	Reason string
	Err    error
}

// Report summarises a run.
type Report struct {
	RunID     string
	Completed []string
	Cached    []string
	Dropped   []Dropped
}

// Orchestrator runs cases and assembles the corpus table.
type Orchestrator struct {
	layout         *Layout
	builder        CaseBuilder
	cache          casecache.Store
	offsets        OffsetFunc
	smileThreshold float64
	logger         *slog.Logger
}

// New wires an orchestrator. A nil cache disables interlocutor CV lookups.
func New(cfg *config.Config, layout *Layout, builder CaseBuilder, cache casecache.Store, logger *slog.Logger) *Orchestrator {
	if cache == nil {
		cache = casecache.Nop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		layout:         layout,
		builder:        builder,
		cache:          cache,
		offsets:        FileOffset(cfg.OffsetTimeLimit()),
		smileThreshold: cfg.Vision.SmileThreshold,
		logger:         logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// WithOffsetFunc replaces the offset estimator (for testing).
func (o *Orchestrator) WithOffsetFunc(fn OffsetFunc) {
	o.offsets = fn
}

// Layout returns the corpus layout.
func (o *Orchestrator) Layout() *Layout {
	return o.layout
}

// RunCase resolves and builds one case.
func (o *Orchestrator) RunCase(ctx context.Context, caseID string, flags merge.Flags) (*merge.Result, error) {
	in, err := o.layout.ResolveCase(caseID)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(services.WithCaseID(ctx, caseID), o.logger)
	logger.Info("case resolved",
		logging.String("audio", in.AudioPath),
		logging.String("alignments", in.AlignmentsPath),
		logging.String("video", in.VideoPath),
		logging.String("transcript", in.TranscriptPath),
		logging.String("creak", in.CreakPath))
	return o.builder.BuildCaseTable(ctx, in, flags)
}

// Run processes ids in order and returns the concatenated corpus table. A
// case failure drops that case and the run continues; interrupts and other
// fatal errors abort the run and no table is returned.
func (o *Orchestrator) Run(ctx context.Context, ids []string, opts Options) (*table.Table, Report, error) {
	report := Report{RunID: uuid.NewString()}
	ctx = services.WithRequestID(ctx, report.RunID)
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("run started", logging.Int("cases", len(ids)))

	var tables []*table.Table
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		res, err := o.RunCase(ctx, id, opts.Flags)
		if opts.OnCase != nil {
			opts.OnCase(id, err)
		}
		if err != nil {
			if services.IsFatal(err) {
				if ctx.Err() == nil {
					logging.ErrorWithContext(logging.WithContext(services.WithCaseID(ctx, id), o.logger),
						"run aborted", "run_aborted",
						logging.String("failure_reason", services.Reason(err)),
						logging.Error(err))
				}
				return nil, report, err
			}
			report.Dropped = append(report.Dropped, Dropped{CaseID: id, Reason: services.Reason(err), Err: err})
			logging.WarnWithContext(logging.WithContext(services.WithCaseID(ctx, id), o.logger),
				"case dropped", "case_dropped",
				logging.String("failure_reason", services.Reason(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the case's resources and tool logs"),
				logging.String(logging.FieldImpact, "case is missing from the corpus table"))
			continue
		}
		if res.Table == nil {
			report.Dropped = append(report.Dropped, Dropped{CaseID: id, Reason: "no_acoustic_table"})
			continue
		}
		tagged, err := o.TagCase(res.Table, id)
		if err != nil {
			report.Dropped = append(report.Dropped, Dropped{CaseID: id, Reason: services.Reason(err), Err: err})
			continue
		}
		tables = append(tables, tagged)
		report.Completed = append(report.Completed, id)
		if res.FromCache {
			report.Cached = append(report.Cached, id)
		}
	}

	corpus := table.Concat(tables...)
	if corpus.Len() > 0 {
		if err := o.AddInterlocutors(corpus, ids); err != nil {
			return nil, report, err
		}
		if opts.Offsets {
			if _, err := o.AddOffsets(ctx, corpus, ids); err != nil {
				return nil, report, err
			}
			if opts.Flags.CV {
				if err := o.AddInterlocutorCV(ctx, corpus, ids); err != nil {
					return nil, report, err
				}
			}
		}
	}

	logger.Info("run completed",
		logging.Int("completed", len(report.Completed)),
		logging.Int("cached", len(report.Cached)),
		logging.Int("dropped", len(report.Dropped)),
		logging.Int("rows", corpus.Len()))
	return corpus, report, nil
}

// TagCase prepends speaker_session_id and adds session_id and speaker_id.
func (o *Orchestrator) TagCase(t *table.Table, caseID string) (*table.Table, error) {
	id, err := o.layout.Identify(caseID)
	if err != nil {
		return nil, err
	}
	tagged := table.New(units.ColSpeakerSessionID)
	tagged = table.Concat(tagged, t)
	n := tagged.Len()
	fill := func(name, value string) error {
		values := make([]table.Value, n)
		for i := range values {
			values[i] = table.Str(value)
		}
		return tagged.SetColumn(name, values)
	}
	if err := fill(units.ColSpeakerSessionID, caseID); err != nil {
		return nil, err
	}
	if err := fill(units.ColSessionID, id.SessionID()); err != nil {
		return nil, err
	}
	if err := fill(units.ColSpeakerID, id.Speaker); err != nil {
		return nil, err
	}
	return tagged, nil
}
