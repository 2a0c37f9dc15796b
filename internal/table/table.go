package table

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Table is an ordered set of named columns with equal length.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, name := range columns {
		if _, exists := t.index[name]; exists {
			continue
		}
		t.index[name] = len(t.columns)
		t.columns = append(t.columns, name)
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// HasAll reports whether every named column exists.
func (t *Table) HasAll(names ...string) bool {
	for _, name := range names {
		if !t.Has(name) {
			return false
		}
	}
	return true
}

// AppendRow adds a row; the value count must match the column count.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("append row: got %d values for %d columns", len(values), len(t.columns))
	}
	t.rows = append(t.rows, append([]Value(nil), values...))
	return nil
}

// AppendRecord adds a row from a name/value map; absent columns are null.
func (t *Table) AppendRecord(record map[string]Value) {
	row := make([]Value, len(t.columns))
	for name, value := range record {
		if idx, ok := t.index[name]; ok {
			row[idx] = value
		}
	}
	t.rows = append(t.rows, row)
}

// Get returns a cell, or null when the column is unknown.
func (t *Table) Get(row int, column string) Value {
	idx, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[row][idx]
}

// Set overwrites a cell, adding a null-filled column first when needed.
func (t *Table) Set(row int, column string, value Value) {
	idx, ok := t.index[column]
	if !ok {
		t.addNullColumn(column)
		idx = t.index[column]
	}
	t.rows[row][idx] = value
}

func (t *Table) addNullColumn(name string) {
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], Null())
	}
}

// SetColumn adds or replaces a column. values must have one entry per row.
func (t *Table) SetColumn(name string, values []Value) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q: got %d values for %d rows", name, len(values), len(t.rows))
	}
	idx, ok := t.index[name]
	if !ok {
		t.addNullColumn(name)
		idx = t.index[name]
	}
	for i := range t.rows {
		t.rows[i][idx] = values[i]
	}
	return nil
}

// SetFloats adds or replaces a numeric column; NaN entries become null.
func (t *Table) SetFloats(name string, values []float64) error {
	cells := make([]Value, len(values))
	for i, v := range values {
		cells[i] = Float(v)
	}
	return t.SetColumn(name, cells)
}

// Column returns a copy of a column's cells.
func (t *Table) Column(name string) ([]Value, bool) {
	idx, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[idx]
	}
	return out, true
}

// Floats returns a numeric view of a column with NaN for missing or unparseable cells.
func (t *Table) Floats(name string) ([]float64, bool) {
	cells, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(cells))
	for i, cell := range cells {
		out[i] = cell.FloatOr(math.NaN())
	}
	return out, true
}

// Strings returns the rendered cells of a column.
func (t *Table) Strings(name string) ([]string, bool) {
	cells, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = cell.String()
	}
	return out, true
}

// Drop removes columns; unknown names are ignored.
func (t *Table) Drop(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if t.Has(name) {
			drop[name] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return
	}
	keep := make([]string, 0, len(t.columns))
	for _, name := range t.columns {
		if _, ok := drop[name]; !ok {
			keep = append(keep, name)
		}
	}
	selected, _ := t.Select(keep...)
	*t = *selected
}

// Rename changes a column name. It fails if the target already exists.
func (t *Table) Rename(from, to string) error {
	idx, ok := t.index[from]
	if !ok {
		return fmt.Errorf("rename: unknown column %q", from)
	}
	if from == to {
		return nil
	}
	if _, exists := t.index[to]; exists {
		return fmt.Errorf("rename: column %q already exists", to)
	}
	delete(t.index, from)
	t.index[to] = idx
	t.columns[idx] = to
	return nil
}

// Row returns a copy of one row keyed by column name.
func (t *Table) Row(i int) map[string]Value {
	out := make(map[string]Value, len(t.columns))
	for idx, name := range t.columns {
		out[name] = t.rows[i][idx]
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	clone := New(t.columns...)
	clone.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		clone.rows[i] = append([]Value(nil), row...)
	}
	return clone
}

// Select returns a new table holding only the named columns, in that order.
func (t *Table) Select(columns ...string) (*Table, error) {
	idxs := make([]int, len(columns))
	for i, name := range columns {
		idx, ok := t.index[name]
		if !ok {
			return nil, fmt.Errorf("select: unknown column %q", name)
		}
		idxs[i] = idx
	}
	out := New(columns...)
	out.rows = make([][]Value, len(t.rows))
	for r, row := range t.rows {
		projected := make([]Value, len(idxs))
		for i, idx := range idxs {
			projected[i] = row[idx]
		}
		out.rows[r] = projected
	}
	return out, nil
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := New(t.columns...)
	for i, row := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]Value(nil), row...))
		}
	}
	return out
}

// Distinct returns the unique combinations of the named columns in first-seen order.
func (t *Table) Distinct(columns ...string) (*Table, error) {
	selected, err := t.Select(columns...)
	if err != nil {
		return nil, err
	}
	out := New(columns...)
	seen := make(map[string]struct{}, selected.Len())
	for _, row := range selected.rows {
		key := rowKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// SortByFloat stably sorts rows by the numeric value of the given columns in
// ascending order. Missing values sort last.
func (t *Table) SortByFloat(columns ...string) {
	idxs := make([]int, 0, len(columns))
	for _, name := range columns {
		if idx, ok := t.index[name]; ok {
			idxs = append(idxs, idx)
		}
	}
	sort.SliceStable(t.rows, func(a, b int) bool {
		for _, idx := range idxs {
			fa, okA := t.rows[a][idx].Float()
			fb, okB := t.rows[b][idx].Float()
			switch {
			case okA && !okB:
				return true
			case !okA:
				if okB {
					return false
				}
				continue
			case fa != fb:
				return fa < fb
			}
		}
		return false
	})
}

// Concat stacks tables vertically. The result holds the union of all columns
// in first-seen order; cells absent from a source table are null.
func Concat(tables ...*Table) *Table {
	var names []string
	seen := map[string]struct{}{}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, name := range t.columns {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	out := New(names...)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for i := range t.rows {
			out.AppendRecord(t.Row(i))
		}
	}
	return out
}

// LeftJoin keeps every row of t and attaches the non-key columns of right
// where all key columns match. A left row matching several right rows is
// repeated once per match. Null keys never match. Non-key columns present in
// both tables are an error; rename them first.
func (t *Table) LeftJoin(right *Table, keys ...string) (*Table, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("left join: no key columns")
	}
	for _, key := range keys {
		if !t.Has(key) || !right.Has(key) {
			return nil, fmt.Errorf("left join: key column %q missing", key)
		}
	}
	isKey := make(map[string]bool, len(keys))
	for _, key := range keys {
		isKey[key] = true
	}
	var extra []string
	for _, name := range right.columns {
		if isKey[name] {
			continue
		}
		if t.Has(name) {
			return nil, fmt.Errorf("left join: column %q exists on both sides", name)
		}
		extra = append(extra, name)
	}

	lookup := make(map[string][]int, right.Len())
	for i, row := range right.rows {
		key, ok := keyFor(right, row, keys)
		if !ok {
			continue
		}
		lookup[key] = append(lookup[key], i)
	}

	out := New(append(t.Columns(), extra...)...)
	for _, row := range t.rows {
		key, ok := keyFor(t, row, keys)
		matches := lookup[key]
		if !ok || len(matches) == 0 {
			out.rows = append(out.rows, append(append([]Value(nil), row...), make([]Value, len(extra))...))
			continue
		}
		for _, m := range matches {
			joined := append([]Value(nil), row...)
			for _, name := range extra {
				joined = append(joined, right.rows[m][right.index[name]])
			}
			out.rows = append(out.rows, joined)
		}
	}
	return out, nil
}

func keyFor(t *Table, row []Value, keys []string) (string, bool) {
	parts := make([]string, len(keys))
	for i, key := range keys {
		cell := row[t.index[key]]
		if cell.IsNull() {
			return "", false
		}
		parts[i] = cell.String()
	}
	return strings.Join(parts, "\x1f"), true
}

func rowKey(row []Value) string {
	parts := make([]string, len(row))
	for i, cell := range row {
		if cell.IsNull() {
			parts[i] = "\x00"
			continue
		}
		parts[i] = cell.String()
	}
	return strings.Join(parts, "\x1f")
}
