package source

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/xtxerr/feedlog/internal/table"
)

// Coercion helpers take whatever encoding/json produced (with UseNumber)
// and never fail: anything that does not fit becomes table.Missing.

func toFloat(v any) table.Value {
	f, ok := parseFloat(v)
	if !ok {
		return table.Missing
	}
	return table.Float(f)
}

func toInt(v any) table.Value {
	switch x := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return table.Int(n)
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return table.Int(n)
		}
	}

	// Integral floats such as 1.2e6 or "3.0" are accepted.
	f, ok := parseFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return table.Missing
	}
	return table.Int(int64(f))
}

func toText(v any) table.Value {
	switch x := v.(type) {
	case string:
		return table.Text(strings.TrimSpace(x))
	case json.Number:
		return table.Text(string(x))
	case float64:
		return table.Float(x)
	case bool:
		return table.Text(strconv.FormatBool(x))
	default:
		return table.Missing
	}
}

// toID renders numeric or string ids as text, rejecting fractional numbers.
func toID(v any) table.Value {
	if s, ok := v.(string); ok {
		return table.Text(strings.TrimSpace(s))
	}
	return toInt(v)
}

func parseFloat(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
