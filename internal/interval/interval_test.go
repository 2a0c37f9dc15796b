package interval_test

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"livingroom/internal/interval"
)

func TestLocateStrictContainment(t *testing.T) {
	lower := []float64{0, 1, 2}
	upper := []float64{1, 2, 3}

	tests := []struct {
		name  string
		point float64
		want  int
		found bool
	}{
		{"inside first", 0.5, 0, true},
		{"inside last", 2.9, 2, true},
		{"shared boundary", 1, -1, false},
		{"lower bound", 0, -1, false},
		{"upper bound", 3, -1, false},
		{"outside", 4, -1, false},
		{"nan", math.NaN(), -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := interval.Locate(tt.point, lower, upper)
			if got != tt.want || ok != tt.found {
				t.Fatalf("Locate(%v) = %d,%v want %d,%v", tt.point, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestLocateOverlapFirstInInputOrder(t *testing.T) {
	// Later start listed first still wins: input order, not start time.
	lower := []float64{1, 0}
	upper := []float64{3, 5}
	if got, ok := interval.Locate(2, lower, upper); !ok || got != 0 {
		t.Fatalf("expected first listed interval, got %d,%v", got, ok)
	}
	if got := interval.LocateAll(2, lower, upper); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("LocateAll = %v", got)
	}
	if got := interval.LocateAll(4, lower, upper); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("LocateAll = %v", got)
	}
}

func TestDegenerateIntervalNeverMatches(t *testing.T) {
	if _, ok := interval.Locate(1, []float64{1}, []float64{1}); ok {
		t.Fatal("zero-width interval should contain nothing")
	}
}

func TestLocateMatchesBruteForceDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(8)
		lower := make([]float64, n)
		upper := make([]float64, n)
		for i := range lower {
			// Integer-valued bounds make boundary hits common.
			lower[i] = float64(rng.Intn(10))
			upper[i] = lower[i] + float64(rng.Intn(4))
		}
		point := float64(rng.Intn(20)) / 2

		want := -1
		for i := range lower {
			if lower[i] < point && point < upper[i] {
				want = i
				break
			}
		}
		got, ok := interval.Locate(point, lower, upper)
		if got != want || ok != (want >= 0) {
			t.Fatalf("trial %d: Locate(%v, %v, %v) = %d,%v want %d", trial, point, lower, upper, got, ok, want)
		}
	}
}

func TestIndexLookups(t *testing.T) {
	idx := interval.NewIndex([]interval.Interval{
		{Label: "hello", Start: 0.5, End: 1.2},
		{Label: "world", Start: 1.2, End: 2.0},
	})
	if iv, ok := idx.Locate(1.5); !ok || iv.Label != "world" {
		t.Fatalf("unexpected interval %+v %v", iv, ok)
	}
	if idx.Contains(1.2) {
		t.Fatal("boundary point should not be contained")
	}
	if got := idx.Flags([]float64{1.0, 2.0, 1.9}); !reflect.DeepEqual(got, []bool{true, false, true}) {
		t.Fatalf("Flags = %v", got)
	}

	var empty *interval.Index
	if empty.Contains(1) || empty.Len() != 0 {
		t.Fatal("nil index should contain nothing")
	}
}

func TestCreakScenario(t *testing.T) {
	creak := interval.NewIndex([]interval.Interval{{Start: 1.5, End: 2.5}})
	got := creak.Flags([]float64{1.0, 2.0, 3.0})
	if !reflect.DeepEqual(got, []bool{false, true, false}) {
		t.Fatalf("creak flags = %v", got)
	}
}
