// Package table holds the normalized data model shared by every source:
// cell values with an explicit missing sentinel, records tagged with a
// collection time, and column-aligned tables with a CSV codec.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Value is one cell. The zero Value is the missing sentinel.
type Value struct {
	text    string
	present bool
}

// Missing marks an absent value. It is distinct from a numeric zero and is
// written as an empty CSV cell.
var Missing = Value{}

// Text returns a text value. Empty text is Missing, since it cannot be told
// apart from an absent cell once written.
func Text(s string) Value {
	if s == "" {
		return Missing
	}
	return Value{text: s, present: true}
}

// Int returns an integer value.
func Int(n int64) Value {
	return Value{text: strconv.FormatInt(n, 10), present: true}
}

// Float returns a float value in its shortest round-trip form.
// NaN and infinities are Missing.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Value{text: strconv.FormatFloat(f, 'f', -1, 64), present: true}
}

// IsMissing reports whether v is the missing sentinel.
func (v Value) IsMissing() bool { return !v.present }

// String returns the cell text, "" for Missing.
func (v Value) String() string { return v.text }

// Float parses the value as a number.
func (v Value) Float() (float64, bool) {
	if !v.present {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
