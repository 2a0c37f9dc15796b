package summary

import (
	"errors"
	"math"
	"strings"
	"testing"

	"livingroom/internal/services"
	"livingroom/internal/table"
	"livingroom/internal/units"
)

func TestSegmentsReducesPerSegment(t *testing.T) {
	in := table.New(units.ColSegmentID, units.ColSegmentLabel, "F0", units.ColSmile, units.ColCreak)
	rows := [][]table.Value{
		{table.Str("2"), table.Str("AA1"), table.Float(120), table.Bool(true), table.Str("False")},
		{table.Str("1"), table.Str("IY1"), table.Float(200), table.Bool(false), table.Str("True")},
		{table.Str("2"), table.Str("AA1"), table.Float(100), table.Bool(false), table.Str("False")},
		{table.Str("1"), table.Str("IY1"), table.Null(), table.Bool(false), table.Str("True")},
		{table.Str("2"), table.Str("ZZ"), table.Float(140), table.Bool(false), table.Null()},
		{table.Str("1"), table.Str("IY1"), table.Float(210), table.Bool(true), table.Str("False")},
		{table.Null(), table.Str("sp"), table.Float(1), table.Bool(true), table.Str("True")},
	}
	for _, r := range rows {
		if err := in.AppendRow(r...); err != nil {
			t.Fatal(err)
		}
	}

	out, err := Segments(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Segments returned error: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d", out.Len())
	}
	if out.Get(0, units.ColSegmentID).String() != "1" || out.Get(1, units.ColSegmentID).String() != "2" {
		t.Fatalf("segments not ordered: %v %v", out.Row(0), out.Row(1))
	}
	if got := out.Get(0, "F0").FloatOr(0); got != 205 {
		t.Fatalf("segment 1 median F0 = %v, want 205", got)
	}
	if got := out.Get(1, "F0").FloatOr(0); got != 120 {
		t.Fatalf("segment 2 median F0 = %v, want 120", got)
	}
	// 1 of 3 is below the 0.4 threshold, 2 of 3 is above it.
	if b, _ := out.Get(0, units.ColSmile).Bool(); b {
		t.Fatalf("segment 1 smile should be false")
	}
	if b, _ := out.Get(0, units.ColCreak).Bool(); !b {
		t.Fatalf("segment 1 creak should be true")
	}
	if b, _ := out.Get(1, units.ColCreak).Bool(); b {
		t.Fatalf("segment 2 creak should be false")
	}
	if out.Get(1, units.ColSegmentLabel).String() != "AA1" {
		t.Fatalf("expected first label kept, got %q", out.Get(1, units.ColSegmentLabel).String())
	}
}

func TestSegmentsRequiresGroupColumn(t *testing.T) {
	_, err := Segments(table.New("F0"), DefaultOptions())
	if !errors.Is(err, services.ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}

func TestMedianEmpty(t *testing.T) {
	if got := median(nil); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestCountWords(t *testing.T) {
	counts, err := CountWords(strings.NewReader("The cat\nthe dog  THE\ncat\n"), true)
	if err != nil {
		t.Fatalf("CountWords returned error: %v", err)
	}
	want := []WordCount{{"the", 3}, {"cat", 2}, {"dog", 1}}
	if len(counts) != len(want) {
		t.Fatalf("got %+v", counts)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, counts[i], want[i])
		}
	}

	var b strings.Builder
	if err := WriteCounts(&b, counts[:1]); err != nil {
		t.Fatal(err)
	}
	if b.String() != "the\t3\n" {
		t.Fatalf("unexpected output %q", b.String())
	}
}

func TestCountWordsCaseSensitive(t *testing.T) {
	counts, err := CountWords(strings.NewReader("A a"), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 || counts[0].Word != "A" {
		t.Fatalf("got %+v", counts)
	}
}
