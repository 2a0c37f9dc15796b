package summary

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"livingroom/internal/textutil"
)

// WordCount is one vocabulary entry.
type WordCount struct {
	Word  string
	Count int
}

// CountWords tallies whitespace-separated words read from r, most frequent
// first and alphabetical within a count. With fold set, words differing only
// in case are counted together.
func CountWords(r io.Reader, fold bool) ([]WordCount, error) {
	counts := make(map[string]int)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		for _, word := range textutil.Words(scanner.Text(), fold) {
			counts[word]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("count words: %w", err)
	}
	out := make([]WordCount, 0, len(counts))
	for word, n := range counts {
		out = append(out, WordCount{Word: word, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Word < out[b].Word
	})
	return out, nil
}

// WriteCounts writes headerless word<TAB>count lines.
func WriteCounts(w io.Writer, counts []WordCount) error {
	bw := bufio.NewWriter(w)
	for _, c := range counts {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", c.Word, c.Count); err != nil {
			return err
		}
	}
	return bw.Flush()
}
