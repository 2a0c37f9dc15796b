// Package interval locates timepoints inside labelled (start, end) spans.
//
// Containment is strict: a point equal to either bound is outside the span.
// Intervals may be unsorted and may overlap; when several contain a point the
// earliest one in input order wins. A point that no interval contains is
// reported as not found and is never an error.
package interval

import "math"

// Interval is a labelled span in seconds.
type Interval struct {
	Label string
	Start float64
	End   float64
}

// Midpoint returns the centre of the span.
func (iv Interval) Midpoint() float64 {
	return (iv.Start + iv.End) / 2
}

// Duration returns End minus Start.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Contains reports strict containment of point.
func (iv Interval) Contains(point float64) bool {
	return iv.Start < point && point < iv.End
}

// Locate returns the index of the first i with lower[i] < point < upper[i].
// Bounds beyond the shorter of the two slices are ignored. NaN never matches.
func Locate(point float64, lower, upper []float64) (int, bool) {
	if math.IsNaN(point) {
		return -1, false
	}
	n := min(len(lower), len(upper))
	for i := 0; i < n; i++ {
		if lower[i] < point && point < upper[i] {
			return i, true
		}
	}
	return -1, false
}

// LocateAll returns every index whose bounds strictly contain point, in input order.
func LocateAll(point float64, lower, upper []float64) []int {
	if math.IsNaN(point) {
		return nil
	}
	var hits []int
	n := min(len(lower), len(upper))
	for i := 0; i < n; i++ {
		if lower[i] < point && point < upper[i] {
			hits = append(hits, i)
		}
	}
	return hits
}

// Index is a reusable view over a list of intervals.
type Index struct {
	items []Interval
	lower []float64
	upper []float64
}

// NewIndex captures the intervals in their given order.
func NewIndex(items []Interval) *Index {
	idx := &Index{
		items: append([]Interval(nil), items...),
		lower: make([]float64, len(items)),
		upper: make([]float64, len(items)),
	}
	for i, iv := range items {
		idx.lower[i] = iv.Start
		idx.upper[i] = iv.End
	}
	return idx
}

// Len returns the number of intervals.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.items)
}

// Locate returns the first interval containing point.
func (x *Index) Locate(point float64) (Interval, bool) {
	if x == nil {
		return Interval{}, false
	}
	i, ok := Locate(point, x.lower, x.upper)
	if !ok {
		return Interval{}, false
	}
	return x.items[i], true
}

// LocateAll returns every interval containing point.
func (x *Index) LocateAll(point float64) []Interval {
	if x == nil {
		return nil
	}
	hits := LocateAll(point, x.lower, x.upper)
	out := make([]Interval, len(hits))
	for i, h := range hits {
		out[i] = x.items[h]
	}
	return out
}

// Contains reports whether any interval contains point.
func (x *Index) Contains(point float64) bool {
	_, ok := x.Locate(point)
	return ok
}

// Flags evaluates Contains for each point.
func (x *Index) Flags(points []float64) []bool {
	out := make([]bool, len(points))
	for i, p := range points {
		out[i] = x.Contains(p)
	}
	return out
}
