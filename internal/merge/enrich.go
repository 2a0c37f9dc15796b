package merge

import (
	"fmt"

	"livingroom/internal/creak"
	"livingroom/internal/interval"
	"livingroom/internal/services/praat"
	"livingroom/internal/services/vision"
	"livingroom/internal/table"
	"livingroom/internal/transcript"
	"livingroom/internal/units"
)

// AddCV interpolates the movement amplitude and smile channels of series at
// every chunk timestamp. Smiles are binarised at threshold after interpolation.
func AddCV(t *table.Table, series *vision.Series, threshold float64) error {
	timestamps, ok := t.Floats(units.ColChunkTimestamp)
	if !ok {
		return fmt.Errorf("add cv: missing %s", units.ColChunkTimestamp)
	}
	movamp := make([]float64, len(timestamps))
	smiles := make([]table.Value, len(timestamps))
	for i, ts := range timestamps {
		movamp[i] = series.MovAmpAt(ts)
		smiles[i] = table.Bool(series.SmileAt(ts, threshold))
	}
	if err := t.SetFloats(units.ColMovAmp, movamp); err != nil {
		return err
	}
	return t.SetColumn(units.ColSmile, smiles)
}

// AddCreak flags every chunk whose timestamp falls strictly inside a creak interval.
func AddCreak(t *table.Table, spans []interval.Interval) error {
	timestamps, ok := t.Floats(units.ColChunkTimestamp)
	if !ok {
		return fmt.Errorf("add creak: missing %s", units.ColChunkTimestamp)
	}
	flags := interval.NewIndex(spans).Flags(timestamps)
	values := make([]table.Value, len(flags))
	for i, f := range flags {
		values[i] = table.Bool(f)
	}
	return t.SetColumn(units.ColCreak, values)
}

// CreakTable renders creak intervals as a start/end/label table.
func CreakTable(spans []interval.Interval) *table.Table {
	out := table.New(creak.ColStart, creak.ColEnd, creak.ColLabel)
	for _, s := range spans {
		_ = out.AppendRow(table.Float(s.Start), table.Float(s.End), table.Str(s.Label))
	}
	return out
}

// Words returns the distinct word intervals of an alignment table in first-seen order.
func Words(segments []praat.AlignedSegment) []interval.Interval {
	var words []interval.Interval
	seen := map[interval.Interval]struct{}{}
	for _, s := range segments {
		if !s.HasWord {
			continue
		}
		if _, ok := seen[s.Word]; ok {
			continue
		}
		seen[s.Word] = struct{}{}
		words = append(words, s.Word)
	}
	return words
}

// JoinWords attaches word_label/start/end to every row whose segment midpoint
// lies inside a word. Rows outside every word get nulls.
func JoinWords(t *table.Table, words []interval.Interval) error {
	return joinSpans(t, words, units.ColWordLabel, units.ColWordStart, units.ColWordEnd)
}

// JoinLines attaches line_label/start/end from transcript lines the same way.
func JoinLines(t *table.Table, lines []transcript.Line) error {
	return joinSpans(t, transcript.Intervals(lines), units.ColLineLabel, units.ColLineStart, units.ColLineEnd)
}

func joinSpans(t *table.Table, spans []interval.Interval, labelCol, startCol, endCol string) error {
	midpoints, ok := t.Floats(units.ColSegmentOriginalMidpoint)
	if !ok {
		return fmt.Errorf("join %s: missing %s", labelCol, units.ColSegmentOriginalMidpoint)
	}
	idx := interval.NewIndex(spans)
	labels := make([]table.Value, len(midpoints))
	starts := make([]table.Value, len(midpoints))
	ends := make([]table.Value, len(midpoints))
	for i, mid := range midpoints {
		span, found := idx.Locate(mid)
		if !found {
			continue
		}
		labels[i] = table.Str(span.Label)
		starts[i] = table.Float(span.Start)
		ends[i] = table.Float(span.End)
	}
	for _, col := range []struct {
		name   string
		values []table.Value
	}{{labelCol, labels}, {startCol, starts}, {endCol, ends}} {
		if err := t.SetColumn(col.name, col.values); err != nil {
			return err
		}
	}
	return nil
}
