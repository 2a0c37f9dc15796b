// Package transcript loads per-case transcript lines and converts tagged
// interview transcripts into the tab-separated layout the pipeline reads.
//
// The canonical layout is headerless with four columns: speaker, line start,
// line end and line text. Older exports repeat the speaker column, giving five
// columns; both layouts are accepted.
package transcript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"livingroom/internal/interval"
	"livingroom/internal/services"
)

// Line is one transcribed utterance.
type Line struct {
	Speaker string
	Start   float64
	End     float64
	Text    string
}

// Interval returns the line as a labelled span.
func (l Line) Interval() interval.Interval {
	return interval.Interval{Label: l.Text, Start: l.Start, End: l.End}
}

// Intervals converts lines to spans in input order.
func Intervals(lines []Line) []interval.Interval {
	spans := make([]interval.Interval, len(lines))
	for i, l := range lines {
		spans[i] = l.Interval()
	}
	return spans
}

// Load reads a transcript file.
func Load(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer f.Close()
	lines, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// Parse reads transcript rows. A first row whose bounds are not numeric is
// taken as a header and skipped.
func Parse(r io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line, ok := parseRow(strings.Split(raw, "\t"))
		if !ok {
			if lineNo == 1 {
				continue
			}
			return nil, services.Wrap(services.ErrMalformedInput, "transcript", "parse",
				fmt.Sprintf("line %d: %q", lineNo, raw), nil)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return lines, nil
}

func parseRow(fields []string) (Line, bool) {
	if len(fields) < 4 {
		return Line{}, false
	}
	// Speaker IDs are numeric too, so the legacy layout is recognised by a
	// numeric third and fourth field rather than by the second.
	offset := 1
	if len(fields) >= 5 && isSeconds(fields[2]) && isSeconds(fields[3]) {
		offset = 2
	} else if !isSeconds(fields[1]) {
		offset = 2
	}
	if len(fields) < offset+3 {
		return Line{}, false
	}
	start, err := parseSeconds(fields[offset])
	if err != nil {
		return Line{}, false
	}
	end, err := parseSeconds(fields[offset+1])
	if err != nil {
		return Line{}, false
	}
	return Line{
		Speaker: strings.TrimSpace(fields[0]),
		Start:   start,
		End:     end,
		Text:    strings.TrimSpace(strings.Join(fields[offset+2:], " ")),
	}, true
}

func isSeconds(raw string) bool {
	_, err := parseSeconds(raw)
	return err == nil
}

func parseSeconds(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// Write emits lines in the four-column layout.
func Write(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		text := strings.NewReplacer("\t", " ", "\n", " ").Replace(l.Text)
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\n", l.Speaker,
			strconv.FormatFloat(l.Start, 'f', -1, 64), strconv.FormatFloat(l.End, 'f', -1, 64), text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var (
	outerTags = regexp.MustCompile(`^<.*?>(.*)<.*?>$`)
	innerTags = regexp.MustCompile(`(<.*?>)+`)
)

// ConvertTagged reads a tagged transcript, one utterance per line in the form
// <..>start<..>end<..>speaker<..>text<..>, and keeps the utterances spoken by
// speaker. An empty speaker keeps every utterance. Lines that do not carry
// numeric bounds are skipped.
func ConvertTagged(r io.Reader, speaker string) ([]Line, error) {
	speaker = strings.TrimSpace(speaker)
	var lines []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		stripped := outerTags.ReplaceAllString(strings.TrimSpace(scanner.Text()), "$1")
		fields := strings.Split(innerTags.ReplaceAllString(stripped, "\t"), "\t")
		if len(fields) < 4 {
			continue
		}
		if speaker != "" && strings.TrimSpace(fields[2]) != speaker {
			continue
		}
		start, err := parseSeconds(fields[0])
		if err != nil {
			continue
		}
		end, err := parseSeconds(fields[1])
		if err != nil {
			continue
		}
		lines = append(lines, Line{
			Speaker: strings.TrimSpace(fields[2]),
			Start:   start,
			End:     end,
			Text:    strings.TrimSpace(strings.Join(fields[3:], " ")),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tagged transcript: %w", err)
	}
	return lines, nil
}
