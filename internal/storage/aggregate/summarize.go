package aggregate

import (
	"fmt"
	"time"

	"github.com/xtxerr/feedlog/internal/table"
)

// Options narrows a summary.
type Options struct {
	// Since drops rows collected before it. Zero keeps all rows.
	Since time.Time

	// Accuracy of the percentile sketches; 0 uses DefaultAccuracy.
	Accuracy float64
}

// Summarize groups t by subjectCol and summarizes valueCol. Rows with a
// missing subject, or a missing or non-numeric value, are skipped.
// Subjects are returned in order of first appearance.
func Summarize(t *table.Table, subjectCol, valueCol string, opts Options) ([]Summary, error) {
	si, vi := t.Index(subjectCol), t.Index(valueCol)
	if si < 0 {
		return nil, fmt.Errorf("unknown column %q", subjectCol)
	}
	if vi < 0 {
		return nil, fmt.Errorf("unknown column %q", valueCol)
	}
	ti := t.Index(table.TimeColumn)

	var order []string
	series := map[string]*Series{}

	for _, row := range t.Rows {
		subject := cell(row, si)
		if subject.IsMissing() {
			continue
		}
		value, ok := cell(row, vi).Float()
		if !ok {
			continue
		}

		var at time.Time
		if ti >= 0 {
			if parsed, err := table.ParseTime(cell(row, ti).String()); err == nil {
				at = parsed
			}
		}
		if !opts.Since.IsZero() && (at.IsZero() || at.Before(opts.Since)) {
			continue
		}

		s, ok := series[subject.String()]
		if !ok {
			s = NewSeries(subject.String(), opts.Accuracy)
			series[subject.String()] = s
			order = append(order, subject.String())
		}
		s.Add(value, at)
	}

	out := make([]Summary, 0, len(order))
	for _, name := range order {
		out = append(out, series[name].Summary())
	}
	return out, nil
}

func cell(row []table.Value, i int) table.Value {
	if i < 0 || i >= len(row) {
		return table.Missing
	}
	return row[i]
}
