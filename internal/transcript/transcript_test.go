package transcript

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"livingroom/internal/interval"
	"livingroom/internal/services"
	"livingroom/internal/testsupport"
)

func TestParseAcceptsBothLayouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"four columns", "003\t1.5\t3.25\thello there\n"},
		{"legacy five columns", "003\t003\t1.5\t3.25\thello there\n"},
		{"legacy named speaker", "003\tFAM\t1.5\t3.25\thello there\n"},
		{"header row", "speaker\tline_start\tline_end\tline_label\n003\t1.5\t3.25\thello there\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if len(lines) != 1 {
				t.Fatalf("expected 1 line, got %+v", lines)
			}
			want := Line{Speaker: "003", Start: 1.5, End: 3.25, Text: "hello there"}
			if lines[0] != want {
				t.Fatalf("got %+v, want %+v", lines[0], want)
			}
		})
	}
}

func TestLegacyLinesContainTheirMidpoint(t *testing.T) {
	lines, err := Parse(strings.NewReader("003\t003\t1.5\t3.25\thello there\n003\t003\t4\t5.5\tsecond line\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	index := interval.NewIndex(Intervals(lines))
	for _, tc := range []struct {
		at   float64
		want string
	}{{2.0, "hello there"}, {5.0, "second line"}} {
		got, ok := index.Locate(tc.at)
		if !ok || got.Label != tc.want {
			t.Fatalf("Locate(%v) = %+v, %v; want %q", tc.at, got, ok, tc.want)
		}
	}
}

func TestParseRejectsMalformedBody(t *testing.T) {
	_, err := Parse(strings.NewReader("003\t1\t2\tok\n003\tx\ty\tbad\n"))
	if !errors.Is(err, services.ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}

func TestLoadMissingFileIsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}

func TestLoadAndIntervals(t *testing.T) {
	path := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "t.txt"), "003\t0\t1\ta\n003\t1\t2\tb\n")
	lines, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	spans := Intervals(lines)
	if len(spans) != 2 || spans[1].Label != "b" || spans[1].Start != 1 {
		t.Fatalf("unexpected spans %+v", spans)
	}
}

func TestConvertTaggedKeepsSpeaker(t *testing.T) {
	input := strings.Join([]string{
		"<u>1.0<e>2.5<spk>ANNA<t>hi there</u>",
		"<u>2.5<e>3.0<spk>INTERVIEWER<t>and you?</u>",
		"<u>3.0<e>4.0<spk>ANNA<t>fine</u>",
		"no tags here",
	}, "\n")
	lines, err := ConvertTagged(strings.NewReader(input), "ANNA")
	if err != nil {
		t.Fatalf("ConvertTagged returned error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	if lines[0] != (Line{Speaker: "ANNA", Start: 1, End: 2.5, Text: "hi there"}) {
		t.Fatalf("unexpected first line %+v", lines[0])
	}

	var buf bytes.Buffer
	if err := Write(&buf, lines); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if buf.String() != "ANNA\t1\t2.5\thi there\nANNA\t3\t4\tfine\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
	back, err := Parse(&buf)
	if err != nil || len(back) != 2 {
		t.Fatalf("written transcript did not parse: %v %+v", err, back)
	}
}
