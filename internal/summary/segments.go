package summary

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"livingroom/internal/services"
	"livingroom/internal/table"
	"livingroom/internal/units"
)

// DefaultMeasures are the acoustic and visual columns reduced to their median.
var DefaultMeasures = []string{
	"2k", "5k",
	"A1", "A1c", "A1hz", "A2", "A2c", "A2hz", "A3", "A3c", "A3hz",
	"CPP", "CPPS",
	"F0", "F1", "F2", "F3",
	"H1", "H1c", "H1hz", "H2", "H2c", "H2hz", "H4", "H4c", "H4hz",
	"HNR", "HNR05", "HNR15", "HNR25",
	"intensity",
	units.ColMovAmp,
	"p0db", "p0hz",
	units.ColInterlocutorMovAmp,
}

// DefaultBinary are the flag columns reduced by majority threshold.
var DefaultBinary = []string{units.ColSmile, units.ColInterlocutorSmile, units.ColCreak}

// DefaultBinaryThreshold is the share of true chunks above which a segment is flagged.
const DefaultBinaryThreshold = 0.4

// Options selects the grouping column and the reduction of each column.
type Options struct {
	GroupBy         string
	Measures        []string
	Binary          []string
	BinaryThreshold float64
}

// DefaultOptions groups by segment_id with the standard column lists.
func DefaultOptions() Options {
	return Options{
		GroupBy:         units.ColSegmentID,
		Measures:        DefaultMeasures,
		Binary:          DefaultBinary,
		BinaryThreshold: DefaultBinaryThreshold,
	}
}

// Segments returns one row per distinct GroupBy value, ordered by that value.
// Measure columns hold the median of their non-null cells, binary columns
// are true when the mean of their non-null cells exceeds BinaryThreshold, and
// every other column keeps the group's first cell. Rows with a null group
// key are dropped. Listed columns absent from t are ignored.
func Segments(t *table.Table, opts Options) (*table.Table, error) {
	if opts.GroupBy == "" {
		opts.GroupBy = units.ColSegmentID
	}
	if !t.Has(opts.GroupBy) {
		return nil, services.Wrap(services.ErrMalformedInput, "summary", "segments",
			fmt.Sprintf("column %q not found", opts.GroupBy), nil)
	}
	measures := toSet(opts.Measures)
	binary := toSet(opts.Binary)

	var keys []string
	groups := make(map[string][]int)
	for i := 0; i < t.Len(); i++ {
		cell := t.Get(i, opts.GroupBy)
		if cell.IsNull() {
			continue
		}
		key := cell.String()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}
	sortKeys(keys)

	columns := t.Columns()
	out := table.New(columns...)
	row := make([]table.Value, len(columns))
	for _, key := range keys {
		members := groups[key]
		for c, name := range columns {
			switch {
			case measures[name]:
				row[c] = table.Float(median(collectFloats(t, name, members)))
			case binary[name]:
				row[c] = majority(t, name, members, opts.BinaryThreshold)
			default:
				row[c] = t.Get(members[0], name)
			}
		}
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

func sortKeys(keys []string) {
	sort.SliceStable(keys, func(a, b int) bool {
		fa, errA := strconv.ParseFloat(keys[a], 64)
		fb, errB := strconv.ParseFloat(keys[b], 64)
		switch {
		case errA == nil && errB == nil:
			return fa < fb
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[a] < keys[b]
		}
	})
}

func collectFloats(t *table.Table, name string, rows []int) []float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := t.Get(r, name).Float(); ok {
			values = append(values, f)
		}
	}
	return values
}

// median averages the two middle values of an even-length sample. It
// returns NaN for an empty sample.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return stat.Mean(values[n/2-1:n/2+1], nil)
}

func majority(t *table.Table, name string, rows []int, threshold float64) table.Value {
	flags := make([]float64, 0, len(rows))
	for _, r := range rows {
		b, ok := t.Get(r, name).Bool()
		if !ok {
			continue
		}
		if b {
			flags = append(flags, 1)
		} else {
			flags = append(flags, 0)
		}
	}
	if len(flags) == 0 {
		return table.Null()
	}
	return table.Bool(stat.Mean(flags, nil) > threshold)
}
