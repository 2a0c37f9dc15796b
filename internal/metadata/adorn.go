package metadata

import (
	"fmt"
	"log/slog"

	"livingroom/internal/config"
	"livingroom/internal/logging"
	"livingroom/internal/services"
	"livingroom/internal/table"
	"livingroom/internal/units"
)

// Columns added to the corpus.
const (
	ColSpeakerFirst      = "speaker_first"
	ColSpeakerLast       = "speaker_last"
	ColInterlocutorFirst = "interlocutor_first"
	ColInterlocutorLast  = "interlocutor_last"

	// SurveyPrefix is prepended to exit-survey columns whose names are taken.
	SurveyPrefix = "survey_"

	rosterInterlocutor = "roster_interlocutor_id"
)

// Sources holds the prepared exit survey and session roster.
type Sources struct {
	Survey *table.Table
	Roster *table.Table
}

// LoadSources reads both exports and backfills the survey's legacy IDs.
func LoadSources(cfg config.Metadata) (Sources, error) {
	if cfg.SurveyPath == "" || cfg.SessionInfoPath == "" {
		return Sources{}, services.Wrap(services.ErrConfiguration, "metadata", "load",
			"metadata.survey_path and metadata.session_info_path are required", nil)
	}
	survey, err := LoadQualtrics(cfg.SurveyPath, cfg.SurveyHeaderPath)
	if err != nil {
		return Sources{}, err
	}
	if err := BackfillIDs(survey, LegacyIDs()); err != nil {
		return Sources{}, err
	}
	roster, err := LoadQualtrics(cfg.SessionInfoPath, cfg.SessionInfoHeaderPath)
	if err != nil {
		return Sources{}, err
	}
	return Sources{Survey: survey, Roster: roster}, nil
}

// Adorner attaches roster and survey fields to corpus rows.
type Adorner struct {
	sources Sources
	logger  *slog.Logger
}

// NewAdorner returns an adorner over prepared sources.
func NewAdorner(sources Sources, logger *slog.Logger) *Adorner {
	return &Adorner{sources: sources, logger: logging.NewComponentLogger(logger, "metadata")}
}

// Adorn left-joins speaker names, the interlocutor's identity and the
// speaker's exit-survey answers onto corpus by session_id and speaker_id.
// A speaker that fills neither roster slot of its session is an
// ErrAmbiguousIdentity. A speaker without an exit-survey row keeps null
// survey fields. An interlocutor_id column already on the corpus wins over
// the roster; its missing cells are filled from the roster.
func (a *Adorner) Adorn(corpus *table.Table) (*table.Table, error) {
	if !corpus.HasAll(units.ColSessionID, units.ColSpeakerID) {
		return nil, services.Wrap(services.ErrMalformedInput, "metadata", "adorn",
			"corpus lacks session_id/speaker_id", nil)
	}
	roster, survey := a.sources.Roster, a.sources.Survey
	if roster == nil || !roster.HasAll(ColSessionID, ColParticipantOneID, ColParticipantTwoID) {
		return nil, services.Wrap(services.ErrMalformedInput, "metadata", "adorn",
			"session roster lacks SessionID/ParticipantOneID/ParticipantTwoID", nil)
	}
	if survey == nil {
		survey = table.New(ColSessionID, ColParticipantID)
	}
	if !survey.HasAll(ColSessionID, ColParticipantID) {
		return nil, services.Wrap(services.ErrMalformedInput, "metadata", "adorn",
			"exit survey lacks SessionID/ParticipantID", nil)
	}

	interlocutorCol := units.ColInterlocutorID
	keepExisting := corpus.Has(units.ColInterlocutorID)
	if keepExisting {
		interlocutorCol = rosterInterlocutor
	}
	base := []string{
		units.ColSessionID, units.ColSpeakerID,
		ColSpeakerFirst, ColSpeakerLast,
		interlocutorCol, ColInterlocutorFirst, ColInterlocutorLast,
	}
	taken := make(map[string]bool)
	for _, name := range append(corpus.Columns(), base...) {
		taken[name] = true
	}
	surveyNames := make(map[string]string)
	columns := append([]string(nil), base...)
	for _, name := range survey.Columns() {
		out := name
		if taken[out] {
			out = SurveyPrefix + name
		}
		surveyNames[name] = out
		columns = append(columns, out)
	}

	pairs, err := corpus.Distinct(units.ColSessionID, units.ColSpeakerID)
	if err != nil {
		return nil, err
	}
	adornment := table.New(columns...)
	for i := 0; i < pairs.Len(); i++ {
		sessionCell, speakerCell := pairs.Get(i, units.ColSessionID), pairs.Get(i, units.ColSpeakerID)
		if sessionCell.IsNull() || speakerCell.IsNull() {
			continue
		}
		record, err := a.identify(sessionCell.String(), speakerCell.String())
		if err != nil {
			return nil, err
		}
		record[units.ColSessionID] = sessionCell
		record[units.ColSpeakerID] = speakerCell
		if keepExisting {
			record[rosterInterlocutor] = record[units.ColInterlocutorID]
			delete(record, units.ColInterlocutorID)
		}
		if row, ok := a.surveyRow(survey, record); ok {
			for name, out := range surveyNames {
				record[out] = survey.Get(row, name)
			}
		}
		adornment.AppendRecord(record)
	}

	joined, err := corpus.LeftJoin(adornment, units.ColSessionID, units.ColSpeakerID)
	if err != nil {
		return nil, services.Wrap(services.ErrMalformedInput, "metadata", "adorn", "join", err)
	}
	if keepExisting {
		for i := 0; i < joined.Len(); i++ {
			if joined.Get(i, units.ColInterlocutorID).IsNull() {
				joined.Set(i, units.ColInterlocutorID, joined.Get(i, rosterInterlocutor))
			}
		}
		joined.Drop(rosterInterlocutor)
	}
	a.logger.Info("metadata attached",
		logging.Int("speakers", adornment.Len()),
		logging.Int("rows", joined.Len()))
	return joined, nil
}

// identify resolves the speaker's roster slot and returns the speaker and
// interlocutor fields, keyed by output column.
func (a *Adorner) identify(session, speaker string) (map[string]table.Value, error) {
	ambiguous := func(detail string) error {
		return services.Wrap(services.ErrAmbiguousIdentity, "metadata", "adorn",
			fmt.Sprintf("session %s speaker %s: %s", session, speaker, detail), nil)
	}
	sessionID, ok := NormalizeID(session)
	if !ok {
		return nil, ambiguous("session id is not numeric")
	}
	speakerID, ok := NormalizeID(speaker)
	if !ok {
		return nil, ambiguous("speaker id is not numeric")
	}
	roster := a.sources.Roster
	row := -1
	for i := 0; i < roster.Len(); i++ {
		if roster.Get(i, ColSessionID).String() == sessionID {
			row = i
			break
		}
	}
	if row < 0 {
		return nil, ambiguous("session missing from roster")
	}

	one := roster.Get(row, ColParticipantOneID)
	two := roster.Get(row, ColParticipantTwoID)
	switch {
	case !one.IsNull() && one.String() == speakerID:
		return map[string]table.Value{
			ColSpeakerFirst:         roster.Get(row, ColParticipantOneFirst),
			ColSpeakerLast:          roster.Get(row, ColParticipantOneLast),
			units.ColInterlocutorID: two,
			ColInterlocutorFirst:    roster.Get(row, ColParticipantTwoFirst),
			ColInterlocutorLast:     roster.Get(row, ColParticipantTwoLast),
		}, nil
	case !two.IsNull() && two.String() == speakerID:
		return map[string]table.Value{
			ColSpeakerFirst:         roster.Get(row, ColParticipantTwoFirst),
			ColSpeakerLast:          roster.Get(row, ColParticipantTwoLast),
			units.ColInterlocutorID: one,
			ColInterlocutorFirst:    roster.Get(row, ColParticipantOneFirst),
			ColInterlocutorLast:     roster.Get(row, ColParticipantOneLast),
		}, nil
	default:
		logging.WarnWithContext(a.logger, "speaker not on session roster", "identity_unresolved",
			logging.String(units.ColSessionID, sessionID),
			logging.String(units.ColSpeakerID, speakerID),
			logging.String(logging.FieldErrorHint, "fix the roster export for this session"),
			logging.String(logging.FieldImpact, "run aborted"),
		)
		return nil, ambiguous("speaker fills neither roster slot")
	}
}

func (a *Adorner) surveyRow(survey *table.Table, record map[string]table.Value) (int, bool) {
	sessionID, _ := NormalizeID(record[units.ColSessionID].String())
	speakerID, _ := NormalizeID(record[units.ColSpeakerID].String())
	match := -1
	count := 0
	for i := 0; i < survey.Len(); i++ {
		if survey.Get(i, ColSessionID).String() == sessionID &&
			survey.Get(i, ColParticipantID).String() == speakerID &&
			!survey.Get(i, ColSessionID).IsNull() {
			if match < 0 {
				match = i
			}
			count++
		}
	}
	switch {
	case count == 0:
		a.logger.Debug("no exit survey response",
			logging.String(units.ColSessionID, sessionID),
			logging.String(units.ColSpeakerID, speakerID))
		return 0, false
	case count > 1:
		logging.WarnWithContext(a.logger, "multiple exit survey responses", "survey_duplicate",
			logging.String(units.ColSessionID, sessionID),
			logging.String(units.ColSpeakerID, speakerID),
			logging.Int("responses", count),
			logging.String(logging.FieldImpact, "first response used"),
		)
	}
	return match, true
}
