// Package units assigns stable identifiers to chunk, segment, word and line
// units of a case table and derives per-unit durations and phonological
// context.
//
// Identifiers are built only from row data and the case ID, so resolving the
// same table twice yields identical columns. A level whose source columns are
// missing is skipped and reported; the other levels still resolve.
package units

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"livingroom/internal/interval"
	"livingroom/internal/table"
)

// Level names a unit tier.
type Level string

const (
	LevelChunk   Level = "chunk"
	LevelSegment Level = "segment"
	LevelWord    Level = "word"
	LevelLine    Level = "line"
)

// Skip records a level that could not be resolved.
type Skip struct {
	Level   Level
	Missing []string
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: missing %s", s.Level, strings.Join(s.Missing, ", "))
}

// Report lists the levels resolved and skipped by Resolve.
type Report struct {
	Resolved []Level
	Skipped  []Skip
}

// Millis floors seconds to whole milliseconds. The small bias keeps values
// such as 1.001 (stored as 1.00099999...) on the intended millisecond.
func Millis(seconds float64) int64 {
	return int64(math.Floor(seconds*1000 + 1e-9))
}

// ChunkID identifies one analysis window.
func ChunkID(timestamp float64, caseID string) string {
	return fmt.Sprintf("%d_%s", Millis(timestamp), caseID)
}

// SegmentID identifies one labelled phone.
func SegmentID(label string, start float64, caseID string) string {
	return fmt.Sprintf("%s_%d_%s", label, Millis(start), caseID)
}

// WordID identifies one word; non-alphanumeric characters are stripped from the label.
func WordID(label string, start float64, caseID string) string {
	return fmt.Sprintf("%s_%d_%s", StripLabel(label), Millis(start), caseID)
}

// LineID identifies one transcript line.
func LineID(start float64, caseID string) string {
	return fmt.Sprintf("%d_%s", Millis(start), caseID)
}

// StripLabel removes every rune that is not a letter or digit.
func StripLabel(label string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, label)
}

type levelSpec struct {
	level    Level
	sources  []string
	idColumn string
	build    func(row map[string]table.Value) (string, bool)
	duration *durationSpec
}

type durationSpec struct {
	column, start, end string
}

// Resolve adds chunk_id, segment_id, word_id and line_id plus the matching
// duration columns to t. Rows whose source cells are null get null IDs.
func Resolve(t *table.Table, caseID string) (Report, error) {
	if t == nil {
		return Report{}, fmt.Errorf("resolve units: nil table")
	}
	specs := []levelSpec{
		{
			level:    LevelChunk,
			sources:  []string{ColChunkTimestamp},
			idColumn: ColChunkID,
			build: func(row map[string]table.Value) (string, bool) {
				ts, ok := row[ColChunkTimestamp].Float()
				return ChunkID(ts, caseID), ok
			},
		},
		{
			level:    LevelSegment,
			sources:  []string{ColSegmentLabel, ColSegmentOriginalStart},
			idColumn: ColSegmentID,
			build: func(row map[string]table.Value) (string, bool) {
				start, ok := row[ColSegmentOriginalStart].Float()
				label := row[ColSegmentLabel]
				return SegmentID(label.String(), start, caseID), ok && !label.IsNull()
			},
			duration: &durationSpec{ColSegmentDuration, ColSegmentStart, ColSegmentEnd},
		},
		{
			level:    LevelWord,
			sources:  []string{ColWordLabel, ColWordStart},
			idColumn: ColWordID,
			build: func(row map[string]table.Value) (string, bool) {
				start, ok := row[ColWordStart].Float()
				label := row[ColWordLabel]
				return WordID(label.String(), start, caseID), ok && !label.IsNull()
			},
			duration: &durationSpec{ColWordDuration, ColWordStart, ColWordEnd},
		},
		{
			level:    LevelLine,
			sources:  []string{ColLineStart},
			idColumn: ColLineID,
			build: func(row map[string]table.Value) (string, bool) {
				start, ok := row[ColLineStart].Float()
				return LineID(start, caseID), ok
			},
			duration: &durationSpec{ColLineDuration, ColLineStart, ColLineEnd},
		},
	}

	var report Report
	for _, spec := range specs {
		if missing := missingColumns(t, spec.sources); len(missing) > 0 {
			report.Skipped = append(report.Skipped, Skip{Level: spec.level, Missing: missing})
			continue
		}
		ids := make([]table.Value, t.Len())
		for i := range ids {
			if id, ok := spec.build(t.Row(i)); ok {
				ids[i] = table.Str(id)
			}
		}
		if err := t.SetColumn(spec.idColumn, ids); err != nil {
			return report, fmt.Errorf("resolve %s: %w", spec.level, err)
		}
		if d := spec.duration; d != nil && t.HasAll(d.start, d.end) {
			if err := setDuration(t, *d); err != nil {
				return report, fmt.Errorf("resolve %s: %w", spec.level, err)
			}
		}
		report.Resolved = append(report.Resolved, spec.level)
	}
	return report, nil
}

func setDuration(t *table.Table, d durationSpec) error {
	starts, okStart := t.Floats(d.start)
	ends, okEnd := t.Floats(d.end)
	if !okStart || !okEnd {
		return fmt.Errorf("%s needs %s and %s", d.column, d.start, d.end)
	}
	durations := make([]float64, len(starts))
	for i := range starts {
		durations[i] = ends[i] - starts[i]
	}
	return t.SetFloats(d.column, durations)
}

func missingColumns(t *table.Table, names []string) []string {
	var missing []string
	for _, name := range names {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Neighbor is one phone with its preceding and following phone labels.
type Neighbor struct {
	Label string
	Start float64
	End   float64
	Prev  string
	Next  string
}

// AttachContext adds prev_phone and next_phone by locating each segment
// midpoint in neighbors, and stress from the trailing digit of the segment label.
func AttachContext(t *table.Table, neighbors []Neighbor) error {
	if !t.HasAll(ColSegmentOriginalMidpoint, ColSegmentLabel) {
		return fmt.Errorf("attach context: need %s and %s", ColSegmentOriginalMidpoint, ColSegmentLabel)
	}
	lower := make([]float64, len(neighbors))
	upper := make([]float64, len(neighbors))
	for i, n := range neighbors {
		lower[i], upper[i] = n.Start, n.End
	}

	midpoints, _ := t.Floats(ColSegmentOriginalMidpoint)
	labels, _ := t.Column(ColSegmentLabel)
	prev := make([]table.Value, t.Len())
	next := make([]table.Value, t.Len())
	stress := make([]table.Value, t.Len())
	for i, mid := range midpoints {
		if idx, ok := interval.Locate(mid, lower, upper); ok {
			prev[i] = optionalLabel(neighbors[idx].Prev)
			next[i] = optionalLabel(neighbors[idx].Next)
		}
		if digit, ok := Stress(labels[i].String()); ok {
			stress[i] = table.Str(digit)
		}
	}
	if err := t.SetColumn(ColPrevPhone, prev); err != nil {
		return err
	}
	if err := t.SetColumn(ColNextPhone, next); err != nil {
		return err
	}
	return t.SetColumn(ColStress, stress)
}

func optionalLabel(label string) table.Value {
	if strings.TrimSpace(label) == "" {
		return table.Null()
	}
	return table.Str(label)
}

// Stress returns the trailing ARPAbet stress digit (0, 1 or 2) of a phone label.
func Stress(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	last := label[len(label)-1]
	if last >= '0' && last <= '2' {
		return string(last), true
	}
	return "", false
}
