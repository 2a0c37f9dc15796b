// Package creak reads the interval output of the external creak detector.
package creak

import (
	"fmt"

	"livingroom/internal/interval"
	"livingroom/internal/services"
	"livingroom/internal/table"
)

// Result columns.
const (
	ColStart = "start"
	ColEnd   = "end"
	ColLabel = "label"
)

// Label is assigned to intervals from files without a label column.
const Label = "creak"

// Load reads creak intervals from a tab-separated file with start and end
// columns in seconds. Rows with a missing bound are skipped.
func Load(path string) ([]interval.Interval, error) {
	t, err := table.ReadTSVFile(path)
	if err != nil {
		return nil, fmt.Errorf("load creak results: %w", err)
	}
	return FromTable(t)
}

// FromTable converts a detector result table into intervals.
func FromTable(t *table.Table) ([]interval.Interval, error) {
	if !t.HasAll(ColStart, ColEnd) {
		return nil, services.Wrap(services.ErrMalformedInput, "creak", "load",
			fmt.Sprintf("columns %v lack start/end", t.Columns()), nil)
	}
	spans := make([]interval.Interval, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		start, okStart := t.Get(i, ColStart).Float()
		end, okEnd := t.Get(i, ColEnd).Float()
		if !okStart || !okEnd {
			continue
		}
		label := Label
		if t.Has(ColLabel) && !t.Get(i, ColLabel).IsNull() {
			label = t.Get(i, ColLabel).String()
		}
		spans = append(spans, interval.Interval{Label: label, Start: start, End: end})
	}
	return spans, nil
}
