package vision

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"livingroom/internal/table"
)

// Cache table columns.
const (
	ColTime   = "time"
	ColMovAmp = "movamp"
	ColSmile  = "smile"
)

// Series is the detector output for one video, ordered by time. Smile holds
// 1 for frames with a detected smile and 0 otherwise.
type Series struct {
	Time   []float64
	MovAmp []float64
	Smile  []float64
}

// Len returns the number of frames.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Time)
}

// Append adds one frame.
func (s *Series) Append(t, movamp float64, smiling bool) {
	s.Time = append(s.Time, t)
	s.MovAmp = append(s.MovAmp, movamp)
	smile := 0.0
	if smiling {
		smile = 1
	}
	s.Smile = append(s.Smile, smile)
}

// Standardize replaces movement amplitudes with population z-scores.
func (s *Series) Standardize() {
	if s.Len() == 0 {
		return
	}
	mean, std := stat.PopMeanStdDev(s.MovAmp, nil)
	for i, v := range s.MovAmp {
		if std == 0 {
			s.MovAmp[i] = 0
			continue
		}
		s.MovAmp[i] = (v - mean) / std
	}
}

// MovAmpAt interpolates the movement amplitude at t.
func (s *Series) MovAmpAt(t float64) float64 {
	if s.Len() == 0 {
		return math.NaN()
	}
	return Interpolate(s.Time, s.MovAmp, t)
}

// SmileAt interpolates the smile channel at t and reports whether it exceeds threshold.
func (s *Series) SmileAt(t, threshold float64) bool {
	if s.Len() == 0 {
		return false
	}
	return Interpolate(s.Time, s.Smile, t) > threshold
}

// Interpolate evaluates the piecewise-linear function through (xs, ys) at x.
// xs must be ascending. Points before the first or after the last knot take
// the boundary value. NaN x yields NaN.
func Interpolate(xs, ys []float64, x float64) float64 {
	n := min(len(xs), len(ys))
	if n == 0 || math.IsNaN(x) {
		return math.NaN()
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs[:n], x)
	if xs[i] == x {
		return ys[i]
	}
	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	if x1 == x0 {
		return y1
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// Table renders the series in the cache layout (time, movamp, smile).
func (s *Series) Table() *table.Table {
	out := table.New(ColTime, ColMovAmp, ColSmile)
	for i := 0; i < s.Len(); i++ {
		_ = out.AppendRow(table.Float(s.Time[i]), table.Float(s.MovAmp[i]), table.Bool(s.Smile[i] > 0))
	}
	return out
}

// SeriesFromTable reads a cached series. Rows with a missing time are skipped.
func SeriesFromTable(t *table.Table) (*Series, error) {
	if !t.HasAll(ColTime, ColMovAmp, ColSmile) {
		return nil, fmt.Errorf("cv table: columns %v lack one of %v", t.Columns(), []string{ColTime, ColMovAmp, ColSmile})
	}
	s := &Series{}
	for i := 0; i < t.Len(); i++ {
		ts, ok := t.Get(i, ColTime).Float()
		if !ok {
			continue
		}
		smiling, _ := t.Get(i, ColSmile).Bool()
		s.Append(ts, t.Get(i, ColMovAmp).FloatOr(math.NaN()), smiling)
	}
	s.sortByTime()
	return s, nil
}

func (s *Series) sortByTime() {
	if sort.Float64sAreSorted(s.Time) {
		return
	}
	idx := make([]int, len(s.Time))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return s.Time[idx[a]] < s.Time[idx[b]] })
	reorder := func(src []float64) []float64 {
		out := make([]float64, len(src))
		for i, j := range idx {
			out[i] = src[j]
		}
		return out
	}
	s.Time, s.MovAmp, s.Smile = reorder(s.Time), reorder(s.MovAmp), reorder(s.Smile)
}
