package praat

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"livingroom/internal/interval"
	"livingroom/internal/services"
	"livingroom/internal/units"
)

// AlignedSegment is one non-empty phone interval and the word interval that
// overlaps its midpoint, if any.
type AlignedSegment struct {
	Segment interval.Interval
	Word    interval.Interval
	HasWord bool
}

// NumTiers returns the number of tiers in a TextGrid.
func (s *Service) NumTiers(ctx context.Context, textgrid string) (int, error) {
	abs, err := filepath.Abs(textgrid)
	if err != nil {
		return 0, err
	}
	out, err := s.run(ctx, "num tiers", ScriptNumTiers, abs)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, services.Wrap(services.ErrMalformedInput, "praat", "num tiers", "non-numeric output", err)
	}
	return n, nil
}

// TierTable lists each non-empty interval of target with the interval of the
// first other tier covering its midpoint. When others is empty every other
// tier of the TextGrid is queried.
func (s *Service) TierTable(ctx context.Context, textgrid string, target int, others ...int) ([]AlignedSegment, error) {
	abs, err := filepath.Abs(textgrid)
	if err != nil {
		return nil, err
	}
	if len(others) == 0 {
		n, err := s.NumTiers(ctx, abs)
		if err != nil {
			return nil, err
		}
		for tier := 1; tier <= n; tier++ {
			if tier != target {
				others = append(others, tier)
			}
		}
	}
	args := []string{abs, strconv.Itoa(target)}
	for _, tier := range others {
		args = append(args, strconv.Itoa(tier))
	}
	out, err := s.run(ctx, "tier table", ScriptTierTable, args...)
	if err != nil {
		return nil, err
	}
	return ParseTierTable(string(out))
}

// ParseTierTable parses rows of segment label/start/end followed by word
// label/start/end. Rows with empty word fields have no word.
func ParseTierTable(out string) ([]AlignedSegment, error) {
	var rows []AlignedSegment
	for lineNo, line := range splitLines(out) {
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, malformedRow("tier table", lineNo, line)
		}
		segment, err := parseInterval(fields[0], fields[1], fields[2])
		if err != nil {
			return nil, malformedRow("tier table", lineNo, line)
		}
		row := AlignedSegment{Segment: segment}
		if len(fields) >= 6 && strings.TrimSpace(fields[4]) != "" {
			word, err := parseInterval(fields[3], fields[4], fields[5])
			if err != nil {
				return nil, malformedRow("tier table", lineNo, line)
			}
			row.Word, row.HasWord = word, true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TierNeighbors lists each interval of tier with its preceding and following labels.
func (s *Service) TierNeighbors(ctx context.Context, textgrid string, tier int) ([]units.Neighbor, error) {
	abs, err := filepath.Abs(textgrid)
	if err != nil {
		return nil, err
	}
	out, err := s.run(ctx, "tier neighbors", ScriptTierNeighbors, abs, strconv.Itoa(tier))
	if err != nil {
		return nil, err
	}
	return ParseNeighbors(string(out))
}

// ParseNeighbors parses label, start, end, prev, next rows.
func ParseNeighbors(out string) ([]units.Neighbor, error) {
	var rows []units.Neighbor
	for lineNo, line := range splitLines(out) {
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, malformedRow("tier neighbors", lineNo, line)
		}
		span, err := parseInterval(fields[0], fields[1], fields[2])
		if err != nil {
			return nil, malformedRow("tier neighbors", lineNo, line)
		}
		n := units.Neighbor{Label: span.Label, Start: span.Start, End: span.End}
		if len(fields) > 3 {
			n.Prev = strings.TrimSpace(fields[3])
		}
		if len(fields) > 4 {
			n.Next = strings.TrimSpace(fields[4])
		}
		rows = append(rows, n)
	}
	return rows, nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func parseInterval(label, start, end string) (interval.Interval, error) {
	s, err := strconv.ParseFloat(strings.TrimSpace(start), 64)
	if err != nil {
		return interval.Interval{}, err
	}
	e, err := strconv.ParseFloat(strings.TrimSpace(end), 64)
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.Interval{Label: strings.TrimSpace(label), Start: s, End: e}, nil
}

func malformedRow(operation string, lineNo int, line string) error {
	return services.Wrap(services.ErrMalformedInput, "praat", operation, fmt.Sprintf("row %d: %q", lineNo+1, line), nil)
}
