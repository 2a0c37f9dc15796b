package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

type readOptions struct {
	naTokens map[string]struct{}
	columns  []string
}

// ReadOption customises ReadTSV.
type ReadOption func(*readOptions)

// WithNA marks additional cell tokens as missing (the empty cell always is).
func WithNA(tokens ...string) ReadOption {
	return func(o *readOptions) {
		for _, token := range tokens {
			o.naTokens[token] = struct{}{}
		}
	}
}

// WithColumns treats the input as headerless and names columns positionally.
func WithColumns(names ...string) ReadOption {
	return func(o *readOptions) {
		o.columns = append([]string(nil), names...)
	}
}

// ReadTSV parses tab-separated text. The first line is the header unless
// WithColumns is given. Short rows are padded with nulls and extra trailing
// cells are ignored. A leading byte order mark is stripped.
func ReadTSV(r io.Reader, opts ...ReadOption) (*Table, error) {
	options := readOptions{naTokens: map[string]struct{}{"": {}}}
	for _, opt := range opts {
		opt(&options)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var t *Table
	if len(options.columns) > 0 {
		t = New(options.columns...)
	}
	lineNo := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lineNo++
		if t == nil {
			header := strings.Split(line, "\t")
			for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
				header = header[:len(header)-1]
			}
			if len(header) == 0 {
				return nil, fmt.Errorf("read tsv: empty header")
			}
			for i := range header {
				header[i] = strings.TrimSpace(header[i])
			}
			t = New(header...)
			if len(t.columns) != len(header) {
				return nil, fmt.Errorf("read tsv: duplicate column names in header")
			}
			continue
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		row := make([]Value, len(t.columns))
		for i := range row {
			if i >= len(fields) {
				break
			}
			if _, na := options.naTokens[strings.TrimSpace(fields[i])]; na {
				continue
			}
			row[i] = Str(fields[i])
		}
		t.rows = append(t.rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tsv line %d: %w", lineNo+1, err)
	}
	if t == nil {
		return nil, fmt.Errorf("read tsv: no header")
	}
	return t, nil
}

// ReadTSVFile opens and parses a TSV file.
func ReadTSVFile(path string, opts ...ReadOption) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	t, err := ReadTSV(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

var cellEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// WriteTSV writes the header and every row.
func (t *Table) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(t.columns, "\t") + "\n"); err != nil {
		return err
	}
	cells := make([]string, len(t.columns))
	for _, row := range t.rows {
		for i, cell := range row {
			cells[i] = cellEscaper.Replace(cell.String())
		}
		if _, err := bw.WriteString(strings.Join(cells, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
