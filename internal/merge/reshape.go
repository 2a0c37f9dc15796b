package merge

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"livingroom/internal/services"
	"livingroom/internal/table"
	"livingroom/internal/units"
)

// chunkMetadata are carried from the long format onto each pivoted row.
var chunkMetadata = []string{
	units.ColFilename, units.ColChunk,
	units.ColSegmentLabel, units.ColSegmentStart, units.ColSegmentEnd,
	units.ColWindowStart, units.ColWindowEnd,
}

// Pivot reshapes long-format measures into one row per (Filename, Chunk) with
// one column per measure, sorted by name after the metadata columns. Rows keep
// first-appearance order; a repeated (chunk, measure) pair keeps its first value.
func Pivot(long *table.Table) (*table.Table, error) {
	required := append(append([]string(nil), chunkMetadata...), units.ColMeasure, units.ColValue)
	if !long.HasAll(required...) {
		return nil, services.Wrap(services.ErrMalformedInput, "merge", "pivot",
			fmt.Sprintf("columns %v lack one of %v", long.Columns(), required), nil)
	}

	type chunk struct {
		meta     map[string]table.Value
		measures map[string]table.Value
	}
	var order []string
	chunks := map[string]*chunk{}
	measureSet := map[string]struct{}{}

	for i := 0; i < long.Len(); i++ {
		key := long.Get(i, units.ColFilename).String() + "\x1f" + long.Get(i, units.ColChunk).String()
		c, ok := chunks[key]
		if !ok {
			c = &chunk{meta: map[string]table.Value{}, measures: map[string]table.Value{}}
			for _, name := range chunkMetadata {
				c.meta[name] = long.Get(i, name)
			}
			chunks[key] = c
			order = append(order, key)
		}
		measure := long.Get(i, units.ColMeasure)
		if measure.IsNull() {
			continue
		}
		name := measure.String()
		measureSet[name] = struct{}{}
		if _, seen := c.measures[name]; !seen {
			c.measures[name] = numeric(long.Get(i, units.ColValue))
		}
	}

	measures := make([]string, 0, len(measureSet))
	for name := range measureSet {
		measures = append(measures, name)
	}
	sort.Strings(measures)

	wide := table.New(append(append([]string(nil), chunkMetadata...), measures...)...)
	for _, key := range order {
		c := chunks[key]
		record := make(map[string]table.Value, len(chunkMetadata)+len(c.measures))
		for name, v := range c.meta {
			record[name] = v
		}
		for name, v := range c.measures {
			record[name] = v
		}
		wide.AppendRecord(record)
	}
	return wide, nil
}

// numeric converts a measure cell to a float. Cells that do not parse as a
// number are missing.
func numeric(v table.Value) table.Value {
	f, ok := v.Float()
	if !ok {
		return table.Null()
	}
	return table.Float(f)
}

// splitOffset extracts the millisecond offset the splitter encodes after the
// last underscore of each piece's filename.
var splitOffset = regexp.MustCompile(`^.*_([0-9]+).*?$`)

// AddTimestamps places every chunk on the original recording's timeline:
// segment_original_start/end/midpoint and chunk_original_timestamp/midpoint/end.
func AddTimestamps(t *table.Table) error {
	n := t.Len()
	segStart := make([]float64, n)
	segEnd := make([]float64, n)
	segMid := make([]float64, n)
	chunkTS := make([]float64, n)
	chunkMid := make([]float64, n)
	chunkEnd := make([]float64, n)

	for i := 0; i < n; i++ {
		filename := t.Get(i, units.ColFilename).String()
		m := splitOffset.FindStringSubmatch(filename)
		if m == nil {
			return services.Wrap(services.ErrMalformedInput, "merge", "timestamps",
				fmt.Sprintf("filename %q carries no offset", filename), nil)
		}
		ms, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return services.Wrap(services.ErrMalformedInput, "merge", "timestamps", filename, err)
		}
		start, okStart := t.Get(i, units.ColSegmentStart).Float()
		end, okEnd := t.Get(i, units.ColSegmentEnd).Float()
		winStart, okWinStart := t.Get(i, units.ColWindowStart).Float()
		winEnd, okWinEnd := t.Get(i, units.ColWindowEnd).Float()
		if !okStart || !okEnd || !okWinStart || !okWinEnd {
			return services.Wrap(services.ErrMalformedInput, "merge", "timestamps",
				fmt.Sprintf("chunk %s of %s has missing bounds", t.Get(i, units.ColChunk), filename), nil)
		}

		segStart[i] = ms/1000 + start
		segEnd[i] = segStart[i] + (end - start)
		segMid[i] = segStart[i] + (end-start)/2
		chunkTS[i] = segStart[i] + winStart
		chunkEnd[i] = segStart[i] + winEnd
		chunkMid[i] = (chunkTS[i] + chunkEnd[i]) / 2
	}

	for _, col := range []struct {
		name   string
		values []float64
	}{
		{units.ColSegmentOriginalStart, segStart},
		{units.ColSegmentOriginalEnd, segEnd},
		{units.ColSegmentOriginalMidpoint, segMid},
		{units.ColChunkTimestamp, chunkTS},
		{units.ColChunkMidpoint, chunkMid},
		{units.ColChunkEnd, chunkEnd},
	} {
		if err := t.SetFloats(col.name, col.values); err != nil {
			return err
		}
	}
	return nil
}
