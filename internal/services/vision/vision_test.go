package vision_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"livingroom/internal/services"
	"livingroom/internal/services/vision"
	"livingroom/internal/testsupport"
)

func TestParseOutputToleratesPaddedFields(t *testing.T) {
	out := "0.04 \t 1.5 \t False\n0.08 \t -0.5 \t True\n\n"
	series, err := vision.ParseOutput([]byte(out))
	if err != nil {
		t.Fatalf("ParseOutput returned error: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", series.Len())
	}
	if series.Time[1] != 0.08 || series.MovAmp[1] != -0.5 || series.Smile[1] != 1 {
		t.Fatalf("unexpected second frame: %v %v %v", series.Time[1], series.MovAmp[1], series.Smile[1])
	}
}

func TestParseOutputRejectsGarbage(t *testing.T) {
	for _, out := range []string{"", "0.04\t1.5\n", "0.04\tx\tTrue\n", "0.04\t1\tmaybe\n"} {
		if _, err := vision.ParseOutput([]byte(out)); !errors.Is(err, services.ErrMalformedInput) {
			t.Fatalf("output %q: expected malformed input, got %v", out, err)
		}
	}
}

func TestInterpolateClampsAndInterpolates(t *testing.T) {
	xs := []float64{1, 2, 4}
	ys := []float64{10, 20, 0}
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 10},
		{1, 10},
		{1.5, 15},
		{2, 20},
		{3, 10},
		{4, 0},
		{9, 0},
	}
	for _, tt := range tests {
		if got := vision.Interpolate(xs, ys, tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("Interpolate(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
	if !math.IsNaN(vision.Interpolate(nil, nil, 1)) {
		t.Fatal("empty knots should yield NaN")
	}
}

func TestSmileAtThresholdsInterpolatedValue(t *testing.T) {
	s := &vision.Series{}
	s.Append(0, 0, false)
	s.Append(1, 0, true)
	if s.SmileAt(0.4, 0.5) {
		t.Fatal("0.4 of the way to a smile should not count")
	}
	if !s.SmileAt(0.6, 0.5) {
		t.Fatal("0.6 of the way to a smile should count")
	}
	if s.SmileAt(0.5, 0.5) {
		t.Fatal("threshold is exclusive")
	}
}

func TestStandardizeUsesPopulationStdDev(t *testing.T) {
	s := &vision.Series{}
	for i, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Append(float64(i), v, false)
	}
	s.Standardize()
	// mean 5, population std 2
	if math.Abs(s.MovAmp[0]-(-1.5)) > 1e-12 || math.Abs(s.MovAmp[7]-2) > 1e-12 {
		t.Fatalf("unexpected z-scores %v", s.MovAmp)
	}
}

func TestSeriesTableRoundTripSortsByTime(t *testing.T) {
	s := &vision.Series{}
	s.Append(2, 0.2, true)
	s.Append(1, 0.1, false)
	back, err := vision.SeriesFromTable(s.Table())
	if err != nil {
		t.Fatalf("SeriesFromTable returned error: %v", err)
	}
	if back.Time[0] != 1 || back.MovAmp[0] != 0.1 || back.Smile[1] != 1 {
		t.Fatalf("unexpected series %+v", back)
	}
}

func TestDetectBuildsArgumentsAndStandardizes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Vision.Script = "/opt/cv/get_smiles.py"
	cfg.Vision.FaceCascade = "/opt/cv/face.xml"
	cfg.Vision.SmileCascade = ""
	cfg.Vision.Standardize = true
	svc := vision.NewService(cfg)

	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte("0.1\t1\tFalse\n0.2\t3\tTrue\n"), nil
	})
	series, err := svc.Detect(context.Background(), "/data/a.mov")
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if gotName != cfg.Vision.Command || strings.Join(gotArgs, " ") != "/opt/cv/get_smiles.py /data/a.mov /opt/cv/face.xml" {
		t.Fatalf("unexpected invocation %s %v", gotName, gotArgs)
	}
	if series.MovAmp[0] != -1 || series.MovAmp[1] != 1 {
		t.Fatalf("expected z-scored amplitudes, got %v", series.MovAmp)
	}
}

func TestDetectTimeoutIsRecoverable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := vision.NewService(cfg)
	svc.WithTimeout(20 * time.Millisecond)
	svc.WithCommandRunner(func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := svc.Detect(context.Background(), "/data/a.mov")
	if !errors.Is(err, services.ErrTimeout) || services.IsFatal(err) {
		t.Fatalf("expected recoverable timeout, got %v", err)
	}
}

func TestDetectWithoutVideoIsMissingResource(t *testing.T) {
	svc := vision.NewService(testsupport.NewConfig(t))
	if _, err := svc.Detect(context.Background(), " "); !errors.Is(err, services.ErrMissingResource) {
		t.Fatalf("expected missing resource, got %v", err)
	}
}
