package metadata

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"livingroom/internal/config"
	"livingroom/internal/logging"
	"livingroom/internal/services"
	"livingroom/internal/table"
	"livingroom/internal/testsupport"
	"livingroom/internal/units"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"8", "008", true},
		{"8.0", "008", true},
		{"P12", "012", true},
		{"  003 ", "003", true},
		{"1234", "1234", true},
		{"", "", false},
		{"n/a", "", false},
		{"1.2.3", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeID(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeID(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoadQualtricsSkipsPreambleAndNormalizesIDs(t *testing.T) {
	dir := t.TempDir()
	header := testsupport.WriteFile(t, filepath.Join(dir, "header.txt"), "\ufeffResponseID,SessionID,ParticipantID,Q1\n")
	export := testsupport.WriteFile(t, filepath.Join(dir, "survey.csv"),
		"\ufeffV1,V2,V3,V4\n"+
			"Response ID,Session,Participant,How was it?\n"+
			"R_1,8,3.0,\"fine, thanks\"\n"+
			"R_2,,x,great\n"+
			"R_3,9\n")

	got, err := LoadQualtrics(export, header)
	if err != nil {
		t.Fatalf("LoadQualtrics returned error: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", got.Len())
	}
	if cols := strings.Join(got.Columns(), ","); cols != "ResponseID,SessionID,ParticipantID,Q1" {
		t.Fatalf("unexpected columns %s", cols)
	}
	if got.Get(0, ColSessionID).String() != "008" || got.Get(0, ColParticipantID).String() != "003" {
		t.Fatalf("ids not normalized: %v", got.Row(0))
	}
	if got.Get(0, "Q1").String() != "fine, thanks" {
		t.Fatalf("quoted cell lost: %q", got.Get(0, "Q1").String())
	}
	if !got.Get(1, ColSessionID).IsNull() || !got.Get(1, ColParticipantID).IsNull() {
		t.Fatalf("expected malformed ids to be null: %v", got.Row(1))
	}
	if !got.Get(2, "Q1").IsNull() {
		t.Fatalf("expected short row padded with null")
	}
}

func TestLoadQualtricsMissingFile(t *testing.T) {
	dir := t.TempDir()
	header := testsupport.WriteFile(t, filepath.Join(dir, "header.txt"), "ResponseID\n")
	_, err := LoadQualtrics(filepath.Join(dir, "absent.csv"), header)
	if !errors.Is(err, services.ErrMissingResource) {
		t.Fatalf("expected missing resource, got %v", err)
	}
}

func TestLegacyIDs(t *testing.T) {
	legacy := LegacyIDs()
	if legacy.Len() == 0 {
		t.Fatal("expected embedded legacy ids")
	}
	if legacy.Get(0, ColResponseID).String() != "R_50YnJIEcaeGeL2t" {
		t.Fatalf("unexpected first row %v", legacy.Row(0))
	}
	if legacy.Get(0, ColSessionID).String() != "008" || legacy.Get(0, ColParticipantID).String() != "004" {
		t.Fatalf("unexpected ids %v", legacy.Row(0))
	}
}

func TestBackfillIDsFillsOnlyMissing(t *testing.T) {
	survey := table.New(ColResponseID, ColSessionID, ColParticipantID)
	_ = survey.AppendRow(table.Str("R_50YnJIEcaeGeL2t"), table.Null(), table.Null())
	_ = survey.AppendRow(table.Str("R_5095gQGphg0i93T"), table.Str("010"), table.Null())
	_ = survey.AppendRow(table.Str("R_unknown"), table.Null(), table.Null())

	if err := BackfillIDs(survey, LegacyIDs()); err != nil {
		t.Fatalf("BackfillIDs returned error: %v", err)
	}
	if survey.Get(0, ColSessionID).String() != "008" || survey.Get(0, ColParticipantID).String() != "004" {
		t.Fatalf("row 0 not backfilled: %v", survey.Row(0))
	}
	if survey.Get(1, ColSessionID).String() != "010" || survey.Get(1, ColParticipantID).String() != "003" {
		t.Fatalf("row 1 should keep its session and gain participant: %v", survey.Row(1))
	}
	if !survey.Get(2, ColSessionID).IsNull() {
		t.Fatalf("unknown response should stay empty: %v", survey.Row(2))
	}
}

func rosterFixture() *table.Table {
	roster := table.New(ColSessionID, ColParticipantOneID, ColParticipantOneFirst, ColParticipantOneLast,
		ColParticipantTwoID, ColParticipantTwoFirst, ColParticipantTwoLast)
	_ = roster.AppendRow(table.Str("008"), table.Str("003"), table.Str("Ada"), table.Str("L"),
		table.Str("004"), table.Str("Ben"), table.Str("M"))
	return roster
}

func corpusFixture(rows ...[2]string) *table.Table {
	corpus := table.New(units.ColSessionID, units.ColSpeakerID, "f0")
	for i, r := range rows {
		_ = corpus.AppendRow(table.Str(r[0]), table.Str(r[1]), table.Float(float64(100+i)))
	}
	return corpus
}

func TestAdornResolvesInterlocutor(t *testing.T) {
	survey := table.New(ColResponseID, ColSessionID, ColParticipantID, "f0", "Q1")
	_ = survey.AppendRow(table.Str("R_a"), table.Str("008"), table.Str("003"), table.Str("x"), table.Str("yes"))

	adorner := NewAdorner(Sources{Survey: survey, Roster: rosterFixture()}, logging.NewNop())
	got, err := adorner.Adorn(corpusFixture([2]string{"008", "003"}, [2]string{"008", "004"}, [2]string{"008", "003"}))
	if err != nil {
		t.Fatalf("Adorn returned error: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", got.Len())
	}
	if got.Get(0, ColSpeakerFirst).String() != "Ada" || got.Get(0, units.ColInterlocutorID).String() != "004" ||
		got.Get(0, ColInterlocutorFirst).String() != "Ben" {
		t.Fatalf("unexpected speaker one adornment %v", got.Row(0))
	}
	if got.Get(1, ColSpeakerFirst).String() != "Ben" || got.Get(1, units.ColInterlocutorID).String() != "003" ||
		got.Get(1, ColInterlocutorLast).String() != "L" {
		t.Fatalf("unexpected speaker two adornment %v", got.Row(1))
	}
	if got.Get(0, "Q1").String() != "yes" || got.Get(0, SurveyPrefix+"f0").String() != "x" {
		t.Fatalf("survey fields missing %v", got.Row(0))
	}
	if got.Get(0, "f0").FloatOr(0) != 100 {
		t.Fatalf("corpus measurement overwritten: %v", got.Row(0))
	}
	if !got.Get(1, "Q1").IsNull() {
		t.Fatalf("speaker without survey response should have null survey fields: %v", got.Row(1))
	}
}

func TestAdornUnknownSpeakerIsFatal(t *testing.T) {
	adorner := NewAdorner(Sources{Roster: rosterFixture()}, logging.NewNop())
	_, err := adorner.Adorn(corpusFixture([2]string{"008", "007"}))
	if !errors.Is(err, services.ErrAmbiguousIdentity) {
		t.Fatalf("expected ambiguous identity, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatalf("expected fatal error")
	}

	_, err = adorner.Adorn(corpusFixture([2]string{"011", "003"}))
	if !errors.Is(err, services.ErrAmbiguousIdentity) {
		t.Fatalf("expected ambiguous identity for unknown session, got %v", err)
	}
}

func TestAdornKeepsExistingInterlocutor(t *testing.T) {
	corpus := table.New(units.ColSessionID, units.ColSpeakerID, units.ColInterlocutorID)
	_ = corpus.AppendRow(table.Str("008"), table.Str("003"), table.Str("999"))
	_ = corpus.AppendRow(table.Str("008"), table.Str("004"), table.Null())

	got, err := NewAdorner(Sources{Roster: rosterFixture()}, logging.NewNop()).Adorn(corpus)
	if err != nil {
		t.Fatalf("Adorn returned error: %v", err)
	}
	if got.Get(0, units.ColInterlocutorID).String() != "999" {
		t.Fatalf("existing interlocutor replaced: %v", got.Row(0))
	}
	if got.Get(1, units.ColInterlocutorID).String() != "003" {
		t.Fatalf("missing interlocutor not filled: %v", got.Row(1))
	}
	if got.Has(rosterInterlocutor) {
		t.Fatalf("scratch column leaked")
	}
}

func TestLoadSourcesRequiresPaths(t *testing.T) {
	_, err := LoadSources(config.Metadata{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadSourcesBackfills(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Metadata{
		SurveyPath:            testsupport.WriteFile(t, filepath.Join(dir, "exit.csv"), "a\nb\nR_50YnJIEcaeGeL2t,,\n"),
		SurveyHeaderPath:      testsupport.WriteFile(t, filepath.Join(dir, "exit_header.txt"), "ResponseID,SessionID,ParticipantID"),
		SessionInfoPath:       testsupport.WriteFile(t, filepath.Join(dir, "roster.csv"), "a\nb\n8,3,4\n"),
		SessionInfoHeaderPath: testsupport.WriteFile(t, filepath.Join(dir, "roster_header.txt"), "SessionID,ParticipantOneID,ParticipantTwoID"),
	}
	src, err := LoadSources(cfg)
	if err != nil {
		t.Fatalf("LoadSources returned error: %v", err)
	}
	if src.Survey.Get(0, ColParticipantID).String() != "004" {
		t.Fatalf("survey not backfilled: %v", src.Survey.Row(0))
	}
	if src.Roster.Get(0, ColParticipantTwoID).String() != "004" {
		t.Fatalf("roster ids not normalized: %v", src.Roster.Row(0))
	}
}
