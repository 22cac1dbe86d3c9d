// Package source fetches and normalizes one upstream domain per Adapter.
//
// Every adapter issues one batched listing request per Fetch, bounded by
// the client timeout, and turns the JSON body into table.Records sharing
// a single collection timestamp. Field extraction is tolerant: absent,
// null or unparsable metrics become table.Missing. A Fetch only fails when
// the call itself fails or when no entry carries the subject field.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/logging"
	"github.com/xtxerr/feedlog/internal/table"
)

var log = logging.Component("source")

// Adapter fetches one domain's records.
type Adapter interface {
	// Name identifies the source in logs and reports.
	Name() string

	// Table is the table the records are appended to.
	Table() string

	// Fetch performs the outbound call(s) and returns normalized records in
	// upstream order.
	Fetch(ctx context.Context) ([]table.Record, error)
}

// Resolver maps ids to display names. *names.Cache implements it.
type Resolver interface {
	Resolve(ctx context.Context, id string) string
}

// HTTPOptions configures the client every adapter builds.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultHTTPOptions returns the package defaults.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:   config.DefaultHTTPTimeout,
		UserAgent: config.DefaultUserAgent,
	}
}

// Clock returns the collection time. Tests replace it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// newClient builds a resty client for one upstream. Retries stay disabled:
// the next scheduled run is the retry.
func newClient(source, baseURL string, opts HTTPOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultHTTPTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", "application/json")
	client.SetLogger(restyLogger{source: source})

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		log.DebugContext(req.Context(), "request", "source", source, "method", req.Method, "url", redactURL(req.URL))
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		log.DebugContext(res.Request.Context(), "response",
			"source", source,
			"status", res.StatusCode(),
			"bytes", len(res.Body()),
			"duration", res.Time())
		return nil
	})

	return client
}

// getJSON performs a GET and decodes the body into out.
//
// Transport failures, timeouts, non-2xx statuses and undecodable bodies
// all come back as *errors.UpstreamError.
func getJSON(ctx context.Context, client *resty.Client, source, path string, params url.Values, out any) error {
	req := client.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}

	res, err := req.Get(path)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", errors.ErrTimeout, err)
		}
		return errors.NewUpstream(source, redactURL(client.BaseURL+path), 0, err)
	}

	rawURL := redactURL(res.Request.URL)
	if !res.IsSuccess() {
		return errors.NewUpstream(source, rawURL, res.StatusCode(),
			fmt.Errorf("unexpected status: %s", snippet(res.Body())))
	}

	dec := json.NewDecoder(bytes.NewReader(res.Body()))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.NewUpstream(source, rawURL, res.StatusCode(),
			fmt.Errorf("%w: %v", errors.ErrMalformedResponse, err))
	}
	return nil
}

// noEntries is the failure for a listing where no entry has a subject.
func noEntries(source, rawURL string, total int) error {
	return errors.NewUpstream(source, redactURL(rawURL), 0,
		fmt.Errorf("%w (%d entries)", errors.ErrNoEntries, total))
}

// redactURL hides API keys in URLs that end up in logs and reports.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	redacted := false
	for _, k := range []string{"key", "api_key", "x_cg_demo_api_key"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
			redacted = true
		}
	}
	if redacted {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}

// restyLogger sends resty's own diagnostics through slog.
type restyLogger struct {
	source string
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", l.source)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	log.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", l.source)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "source", l.source)
}

// subject returns the subject field, reporting whether it is present.
func subject(name string, v table.Value) (table.Field, bool) {
	return table.F(name, v), !v.IsMissing()
}
