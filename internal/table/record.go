package table

import "time"

// TimeColumn is the first column of every table.
const TimeColumn = "time"

// Field is a named cell of a Record.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for building a Field.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// Record is one normalized observation.
//
// Columns are always TimeColumn, the subject column, then the metrics in
// the order the source declared them.
type Record struct {
	CollectedAt time.Time
	Subject     Field
	Metrics     []Field
}

// Columns returns the record's column names in order.
func (r Record) Columns() []string {
	cols := make([]string, 0, 2+len(r.Metrics))
	cols = append(cols, TimeColumn, r.Subject.Name)
	for _, m := range r.Metrics {
		cols = append(cols, m.Name)
	}
	return cols
}

// Values returns the cells aligned with Columns.
func (r Record) Values() []Value {
	vals := make([]Value, 0, 2+len(r.Metrics))
	vals = append(vals, Text(FormatTime(r.CollectedAt)), r.Subject.Value)
	for _, m := range r.Metrics {
		vals = append(vals, m.Value)
	}
	return vals
}

// Get returns the value of the named column, Missing if absent.
func (r Record) Get(name string) Value {
	switch name {
	case TimeColumn:
		return Text(FormatTime(r.CollectedAt))
	case r.Subject.Name:
		return r.Subject.Value
	}
	for _, m := range r.Metrics {
		if m.Name == name {
			return m.Value
		}
	}
	return Missing
}

// FormatTime renders a collection timestamp: UTC, RFC 3339, sub-second
// digits kept when present.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime is the inverse of FormatTime. It also accepts the naive ISO
// form without a zone, read as UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
}
