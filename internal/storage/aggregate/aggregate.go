// Package aggregate summarizes a numeric column per subject.
//
// Count, min, max, mean and the last value are exact. Percentiles come
// from a DDSketch with 1% relative accuracy.
package aggregate

import (
	"math"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// DefaultAccuracy is the relative accuracy of the percentile sketches.
const DefaultAccuracy = 0.01

// Series accumulates the values of one subject in table order.
type Series struct {
	subject string

	count int64
	sum   float64
	min   float64
	max   float64
	last  float64

	first  time.Time
	latest time.Time

	// DDSketch for percentiles (nil if it could not be created)
	sketch *ddsketch.DDSketch
}

// NewSeries creates an empty series. accuracy <= 0 uses DefaultAccuracy.
func NewSeries(subject string, accuracy float64) *Series {
	if accuracy <= 0 {
		accuracy = DefaultAccuracy
	}
	s := &Series{
		subject: subject,
		min:     math.MaxFloat64,
		max:     -math.MaxFloat64,
	}
	if sketch, err := ddsketch.NewDefaultDDSketch(accuracy); err == nil {
		s.sketch = sketch
	}
	return s
}

// Add records one value collected at t. t may be zero when the table has
// no usable time column.
func (s *Series) Add(value float64, t time.Time) {
	s.count++
	s.sum += value
	s.last = value
	if value < s.min {
		s.min = value
	}
	if value > s.max {
		s.max = value
	}
	if !t.IsZero() {
		if s.first.IsZero() || t.Before(s.first) {
			s.first = t
		}
		if t.After(s.latest) {
			s.latest = t
		}
	}
	if s.sketch != nil {
		s.sketch.Add(value)
	}
}

// Count returns the number of values added.
func (s *Series) Count() int64 { return s.count }

// Summary is the result for one subject.
type Summary struct {
	Subject string
	Count   int64
	Min     float64
	Max     float64
	Mean    float64
	Last    float64
	First   time.Time
	Latest  time.Time

	// Percentiles are nil when the sketch holds no values.
	P50 *float64
	P90 *float64
	P99 *float64
}

// Summary returns the accumulated statistics.
func (s *Series) Summary() Summary {
	out := Summary{
		Subject: s.subject,
		Count:   s.count,
		First:   s.first,
		Latest:  s.latest,
	}
	if s.count == 0 {
		return out
	}
	out.Min = s.min
	out.Max = s.max
	out.Mean = s.sum / float64(s.count)
	out.Last = s.last

	if s.sketch != nil && !s.sketch.IsEmpty() {
		out.P50 = quantile(s.sketch, 0.50)
		out.P90 = quantile(s.sketch, 0.90)
		out.P99 = quantile(s.sketch, 0.99)
	}
	return out
}

func quantile(sk *ddsketch.DDSketch, q float64) *float64 {
	v, err := sk.GetValueAtQuantile(q)
	if err != nil {
		return nil
	}
	return &v
}
