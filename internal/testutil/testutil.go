// Package testutil provides helpers shared by the package tests: fake
// upstream servers, readable renderings of tables, and a goroutine
// harness that reports errors without calling t.Fatal off the test
// goroutine.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xtxerr/feedlog/internal/table"
)

// MissingCell is how Cells and Values render table.Missing.
const MissingCell = "∅"

// =============================================================================
// Rendering
// =============================================================================

// Values renders a record's cells in column order.
func Values(r table.Record) []string {
	return render(r.Values())
}

// Cells renders a table's header followed by its rows.
func Cells(t *table.Table) [][]string {
	out := [][]string{append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		out = append(out, render(row))
	}
	return out
}

func render(vals []table.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		if v.IsMissing() {
			out[i] = MissingCell
			continue
		}
		out[i] = v.String()
	}
	return out
}

// =============================================================================
// Fake upstreams
// =============================================================================

// Server is an httptest server that counts requests.
type Server struct {
	*httptest.Server
	calls atomic.Int32
}

// Calls returns the number of requests served so far.
func (s *Server) Calls() int { return int(s.calls.Load()) }

// JSONServer answers every request with status and body. It is closed
// when the test ends.
func JSONServer(t *testing.T, status int, body string) *Server {
	t.Helper()
	return HandlerServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

// HandlerServer serves h and counts requests. It is closed when the test
// ends.
func HandlerServer(t *testing.T, h http.Handler) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// =============================================================================
// Error Channel Pattern
// =============================================================================

// GoroutineTest runs functions concurrently and reports their errors from
// the test goroutine. t.Fatal from another goroutine only exits that
// goroutine, so workers return errors instead.
//
//	gt := testutil.NewGoroutineTest(t, 5*time.Second)
//	for i := 0; i < 8; i++ {
//	    gt.Go(func(ctx context.Context) error { ... })
//	}
//	gt.Wait()
type GoroutineTest struct {
	t      *testing.T
	wg     sync.WaitGroup
	mu     sync.Mutex
	errs   []error
	ctx    context.Context
	cancel context.CancelFunc
}

// NewGoroutineTest creates a GoroutineTest whose context expires after
// timeout.
func NewGoroutineTest(t *testing.T, timeout time.Duration) *GoroutineTest {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return &GoroutineTest{t: t, ctx: ctx, cancel: cancel}
}

// Go runs fn in a goroutine and collects its error.
func (gt *GoroutineTest) Go(fn func(ctx context.Context) error) {
	gt.wg.Add(1)
	go func() {
		defer gt.wg.Done()
		if err := fn(gt.ctx); err != nil {
			gt.mu.Lock()
			gt.errs = append(gt.errs, err)
			gt.mu.Unlock()
		}
	}()
}

// Wait waits for all goroutines and fails the test if any returned an
// error or the timeout expired first.
func (gt *GoroutineTest) Wait() {
	gt.t.Helper()

	done := make(chan struct{})
	go func() {
		gt.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-gt.ctx.Done():
		gt.t.Fatalf("goroutines still running after timeout: %v", gt.ctx.Err())
	}
	gt.cancel()

	gt.mu.Lock()
	defer gt.mu.Unlock()
	if len(gt.errs) > 0 {
		for i, err := range gt.errs {
			gt.t.Errorf("  [%d] %v", i+1, err)
		}
		gt.t.Fatalf("goroutine test failed with %d error(s)", len(gt.errs))
	}
}
