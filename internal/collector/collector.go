// Package collector runs every configured source once and appends what it
// fetched to the source's table.
//
// A run is one sequential pass in registration order. Each source is
// isolated: a failed fetch, a failed append or a panic is recorded in that
// source's result and the pass moves on to the next source.
package collector

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/logging"
	"github.com/xtxerr/feedlog/internal/metrics"
	"github.com/xtxerr/feedlog/internal/source"
	"github.com/xtxerr/feedlog/internal/storage"
	"github.com/xtxerr/feedlog/internal/table"
)

var log = logging.Component("collector")

// Stage is where a source's run stopped.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageAppend Stage = "append"
	StageDone   Stage = "done"
)

// Appender persists records. *storage.Store implements it.
type Appender interface {
	Append(name string, records []table.Record) (storage.AppendResult, error)
}

// Runner drives adapters into an Appender.
type Runner struct {
	store   Appender
	metrics *metrics.Metrics

	// Now is replaceable in tests.
	Now func() time.Time
}

// NewRunner creates a Runner. m may be nil.
func NewRunner(store Appender, m *metrics.Metrics) *Runner {
	return &Runner{store: store, metrics: m, Now: time.Now}
}

// SourceResult is the outcome of one source in one run.
type SourceResult struct {
	Source       string
	Table        string
	Stage        Stage
	RowsAppended int
	ColumnsAdded []string
	Duration     time.Duration
	Err          error
}

// OK reports whether the source's records were appended.
func (r SourceResult) OK() bool { return r.Err == nil }

// Report summarizes a run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []SourceResult
}

// Failures returns the failed results in run order.
func (r *Report) Failures() []SourceResult {
	var out []SourceResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Succeeded returns the number of sources that appended their records.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// OK reports whether every source succeeded.
func (r *Report) OK() bool { return len(r.Failures()) == 0 }

// AllFailed reports whether there was at least one source and none succeeded.
func (r *Report) AllFailed() bool { return len(r.Results) > 0 && r.Succeeded() == 0 }

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// RunAll runs every adapter once, in order. It never returns early; the
// report carries every failure.
func (r *Runner) RunAll(ctx context.Context, adapters []source.Adapter) *Report {
	report := &Report{
		RunID:   newRunID(r.now()),
		Started: r.now(),
		Results: make([]SourceResult, 0, len(adapters)),
	}
	ctx = logging.ContextWithRunID(ctx, report.RunID)

	log.InfoContext(ctx, "collection run started", "sources", len(adapters))

	for _, a := range adapters {
		res := r.runOne(ctx, a)
		report.Results = append(report.Results, res)
		r.metrics.ObserveSource(res.Source, errors.Kind(res.Err), res.RowsAppended, res.Duration, r.now())
	}

	report.Finished = r.now()
	log.InfoContext(ctx, "collection run finished",
		"succeeded", report.Succeeded(),
		"failed", len(report.Failures()),
		"duration", report.Duration())

	return report
}

func (r *Runner) runOne(ctx context.Context, a source.Adapter) (res SourceResult) {
	res = SourceResult{Source: a.Name(), Table: a.Table(), Stage: StageFetch}
	ctx = logging.ContextWithSource(ctx, res.Source)
	start := r.now()

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("panic in %s stage: %v", res.Stage, p)
			log.ErrorContext(ctx, "source panicked", "source", res.Source, "panic", p, "stack", string(debug.Stack()))
		}
		res.Duration = r.now().Sub(start)
		logResult(ctx, res)
	}()

	records, err := a.Fetch(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	res.Stage = StageAppend
	appended, err := r.store.Append(res.Table, records)
	if err != nil {
		res.Err = err
		return res
	}

	res.Stage = StageDone
	res.RowsAppended = appended.RowsAppended
	res.ColumnsAdded = appended.ColumnsAdded
	return res
}

func logResult(ctx context.Context, res SourceResult) {
	if res.Err != nil {
		log.ErrorContext(ctx, "source failed",
			"source", res.Source,
			"table", res.Table,
			"stage", res.Stage,
			"kind", errors.Kind(res.Err),
			"retriable", errors.IsRetriable(res.Err),
			"duration", res.Duration,
			"error", res.Err)
		return
	}
	args := []any{
		"source", res.Source,
		"table", res.Table,
		"rows", res.RowsAppended,
		"duration", res.Duration,
	}
	if len(res.ColumnsAdded) > 0 {
		args = append(args, "columns_added", res.ColumnsAdded)
	}
	log.InfoContext(ctx, "source collected", args...)
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

func newRunID(t time.Time) string {
	return t.UTC().Format("20060102T150405.000Z")
}
