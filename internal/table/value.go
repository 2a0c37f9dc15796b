package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the representation stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindFloat
	KindString
	KindBool
)

// Value is a single table cell.
type Value struct {
	kind Kind
	f    float64
	s    string
	b    bool
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Float wraps a number; NaN is stored as null.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindFloat, f: f}
}

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the stored representation.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric view of the cell. Strings are parsed on demand;
// booleans map to 1 and 0. The second result is false when no number is available.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatOr returns the numeric view or fallback.
func (v Value) FloatOr(fallback float64) float64 {
	if f, ok := v.Float(); ok {
		return f
	}
	return fallback
}

// Bool returns the boolean view of the cell.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindFloat:
		return v.f != 0, true
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.s)) {
		case "true", "1", "1.0":
			return true, true
		case "false", "0", "0.0":
			return false, true
		}
	}
	return false, false
}

// String renders the cell the way it is written to TSV.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Equal compares rendered forms, treating two nulls as equal.
func (v Value) Equal(other Value) bool {
	if v.IsNull() || other.IsNull() {
		return v.IsNull() && other.IsNull()
	}
	return v.String() == other.String()
}
