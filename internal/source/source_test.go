package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/table"
	"github.com/xtxerr/feedlog/internal/testutil"
)

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func testOptions() HTTPOptions {
	return HTTPOptions{Timeout: 2 * time.Second, UserAgent: "feedlog-test"}
}

type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, id string) string {
	if name, ok := m[id]; ok {
		return name
	}
	return id
}

func TestPricesFetch(t *testing.T) {
	body := `[
		{"id":"bitcoin","current_price":61234.5,"price_change_percentage_24h":1.25,
		 "price_change_percentage_7d_in_currency":-3.5,"market_cap":1200000000000},
		{"id":"ethereum","current_price":3100,"price_change_percentage_24h":null,
		 "price_change_percentage_7d_in_currency":"n/a","market_cap":372000000000}
	]`

	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		queries <- r.URL.RawQuery
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	p := NewPrices(PricesConfig{BaseURL: srv.URL, Coins: []string{"bitcoin", "ethereum"}}, testOptions())
	p.Clock = fixedClock

	records, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	query := <-queries
	require.Contains(t, query, "ids=bitcoin%2Cethereum")
	require.Contains(t, query, "vs_currency=eur")

	require.Equal(t, []string{"time", "name", "price", "change_24h", "change_7d", "market_cap"}, records[0].Columns())
	require.Equal(t,
		[]string{"2024-03-01T12:00:00Z", "bitcoin", "61234.5", "1.25", "-3.5", "1200000000000"},
		testutil.Values(records[0]))
	require.Equal(t,
		[]string{"2024-03-01T12:00:00Z", "ethereum", "3100", "∅", "∅", "372000000000"},
		testutil.Values(records[1]))
	require.Equal(t, records[0].CollectedAt, records[1].CollectedAt)
}

func TestPricesEmptyListing(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, `[]`)
	p := NewPrices(PricesConfig{BaseURL: srv.URL}, testOptions())

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	require.True(t, errors.IsUpstream(err))
	require.ErrorIs(t, err, errors.ErrNoEntries)
}

func TestPricesAllEntriesWithoutID(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, `[{"current_price":1},{"id":null,"current_price":2}]`)
	p := NewPrices(PricesConfig{BaseURL: srv.URL}, testOptions())

	_, err := p.Fetch(context.Background())
	require.ErrorIs(t, err, errors.ErrNoEntries)
}

func TestPricesPartialSubject(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, `[{"current_price":1},{"id":"dogecoin","current_price":0.15}]`)
	p := NewPrices(PricesConfig{BaseURL: srv.URL}, testOptions())
	p.Clock = fixedClock

	records, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].Get("name").IsMissing())
	require.Equal(t, "dogecoin", records[1].Get("name").String())
}

func TestFetchNon2xx(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusTooManyRequests, `{"status":{"error_code":429}}`)
	p := NewPrices(PricesConfig{BaseURL: srv.URL}, testOptions())

	_, err := p.Fetch(context.Background())
	require.Error(t, err)

	var ue *errors.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusTooManyRequests, ue.Status)
	require.Equal(t, "prices", ue.Source)
	require.True(t, errors.IsRetriable(err))
}

func TestFetchMalformedBody(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, `<html>maintenance</html>`)
	p := NewPrices(PricesConfig{BaseURL: srv.URL}, testOptions())

	_, err := p.Fetch(context.Background())
	require.ErrorIs(t, err, errors.ErrUpstream)
	require.ErrorIs(t, err, errors.ErrMalformedResponse)
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := NewPrices(PricesConfig{BaseURL: srv.URL}, HTTPOptions{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	require.True(t, errors.IsUpstream(err))
	require.True(t, errors.IsTimeout(err), "err = %v", err)
	require.Less(t, time.Since(start), time.Second)
}

func TestFetchContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r := NewRankings(RankingsConfig{BaseURL: srv.URL}, nil, testOptions())
	_, err := r.Fetch(ctx)
	require.ErrorIs(t, err, errors.ErrTimeout)
}

func TestFetchUnreachable(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, `[]`)
	base := srv.URL
	srv.Close()

	p := NewPrices(PricesConfig{BaseURL: base}, testOptions())
	_, err := p.Fetch(context.Background())

	var ue *errors.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Zero(t, ue.Status)
}

const mostPlayedBody = `{"response":{"rollup_date":1709251200,"ranks":[
	{"rank":1,"appid":730,"last_week_rank":1,"peak_in_game":1500000},
	{"rank":2,"appid":570,"last_week_rank":3,"peak_in_game":700000},
	{"rank":3,"appid":578080,"last_week_rank":null}
]}}`

func TestRankingsFetch(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, mostPlayedBody)

	resolver := mapResolver{"730": "Counter-Strike 2", "570": "Dota 2"}
	r := NewRankings(RankingsConfig{BaseURL: srv.URL}, resolver, testOptions())
	r.Clock = fixedClock

	records, err := r.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, []string{"time", "appid", "name", "rank", "last_week_rank", "players"}, records[0].Columns())
	require.Equal(t,
		[]string{"2024-03-01T12:00:00Z", "730", "Counter-Strike 2", "1", "1", "1500000"},
		testutil.Values(records[0]))
	require.Equal(t,
		[]string{"2024-03-01T12:00:00Z", "578080", "578080", "3", "∅", "∅"},
		testutil.Values(records[2]))
}

func TestRankingsLimit(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, mostPlayedBody)
	r := NewRankings(RankingsConfig{BaseURL: srv.URL, Limit: 2}, nil, testOptions())

	records, err := r.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "570", records[1].Get("name").String())
}

func TestRankingsMissingAppIDSkipsResolver(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, `{"response":{"ranks":[{"rank":1},{"rank":2,"appid":440}]}}`)

	var asked []string
	resolver := resolverFunc(func(_ context.Context, id string) string {
		asked = append(asked, id)
		return "Team Fortress 2"
	})
	r := NewRankings(RankingsConfig{BaseURL: srv.URL}, resolver, testOptions())

	records, err := r.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"440"}, asked)
	require.True(t, records[0].Get("appid").IsMissing())
	require.True(t, records[0].Get("name").IsMissing())
}

func TestRankingsEmptyResponse(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, `{"response":{}}`)
	r := NewRankings(RankingsConfig{BaseURL: srv.URL}, nil, testOptions())

	_, err := r.Fetch(context.Background())
	require.ErrorIs(t, err, errors.ErrNoEntries)
}

type resolverFunc func(ctx context.Context, id string) string

func (f resolverFunc) Resolve(ctx context.Context, id string) string { return f(ctx, id) }

func TestAppDetailsLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appdetails", r.URL.Path)
		assert.Equal(t, "fr", r.URL.Query().Get("cc"))
		switch r.URL.Query().Get("appids") {
		case "730":
			fmt.Fprint(w, `{"730":{"success":true,"data":{"name":"Counter-Strike 2"}}}`)
		case "999":
			fmt.Fprint(w, `{"999":{"success":false}}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	a := NewAppDetails(AppDetailsConfig{BaseURL: srv.URL}, testOptions())

	name, err := a.LookupName(context.Background(), "730")
	require.NoError(t, err)
	require.Equal(t, "Counter-Strike 2", name)

	_, err = a.LookupName(context.Background(), "999")
	require.ErrorIs(t, err, errors.ErrResolutionMiss)

	_, err = a.LookupName(context.Background(), "1")
	require.ErrorIs(t, err, errors.ErrResolutionMiss)
	require.ErrorIs(t, err, errors.ErrUpstream)
}

const popularBody = `{"items":[
	{"id":"abc123","snippet":{"title":"Clip one","channelTitle":"Chan A"},
	 "statistics":{"viewCount":"1024","likeCount":"12","commentCount":"3"}},
	{"id":"def456","snippet":{"title":"Clip two","channelTitle":"Chan B"},
	 "statistics":{"viewCount":"77"}}
]}`

func TestStatisticsFetch(t *testing.T) {
	keys := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/videos", r.URL.Path)
		assert.Equal(t, "mostPopular", r.URL.Query().Get("chart"))
		keys <- r.URL.Query().Get("key")
		fmt.Fprint(w, popularBody)
	}))
	defer srv.Close()

	s := NewStatistics(StatisticsConfig{BaseURL: srv.URL, APIKey: "secret"}, testOptions())
	s.Clock = fixedClock

	records, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "secret", <-keys)
	require.Len(t, records, 2)

	require.Equal(t,
		[]string{"time", "video_id", "title", "channel", "views", "likes", "comments"},
		records[0].Columns())
	require.Equal(t,
		[]string{"2024-03-01T12:00:00Z", "abc123", "Clip one", "Chan A", "1024", "12", "3"},
		testutil.Values(records[0]))
	require.Equal(t,
		[]string{"2024-03-01T12:00:00Z", "def456", "Clip two", "Chan B", "77", "∅", "∅"},
		testutil.Values(records[1]))
}

func TestStatisticsWithoutKey(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusOK, popularBody)
	s := NewStatistics(StatisticsConfig{BaseURL: srv.URL}, testOptions())

	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, errors.ErrUpstream)
	require.ErrorIs(t, err, errors.ErrNotConfigured)
	require.Zero(t, srv.Calls())
}

func TestStatisticsErrorRedactsKey(t *testing.T) {
	srv := testutil.JSONServer(t, http.StatusForbidden, `{"error":{"code":403,"message":"quota"}}`)
	s := NewStatistics(StatisticsConfig{BaseURL: srv.URL, APIKey: "topsecret"}, testOptions())

	_, err := s.Fetch(context.Background())

	var ue *errors.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusForbidden, ue.Status)
	require.NotContains(t, ue.URL, "topsecret")
	require.Contains(t, ue.URL, "key=REDACTED")
}

func TestRedactURL(t *testing.T) {
	require.Equal(t, "https://h/p?a=1&key=REDACTED", redactURL("https://h/p?key=abc&a=1"))
	require.Equal(t, "https://h/p?a=1", redactURL("https://h/p?a=1"))
}

func TestCoercion(t *testing.T) {
	cases := []struct {
		name string
		got  table.Value
		want string
	}{
		{"float from number string", toFloat("1.5"), "1.5"},
		{"float from garbage", toFloat("abc"), "∅"},
		{"float from nil", toFloat(nil), "∅"},
		{"int from string", toInt("42"), "42"},
		{"int from integral float", toInt("3.0"), "3"},
		{"int from fraction", toInt("3.5"), "∅"},
		{"int from bool", toInt(true), "∅"},
		{"text trims", toText("  hi "), "hi"},
		{"text from empty", toText(""), "∅"},
		{"id from string", toID(" 7 "), "7"},
		{"id from fraction", toID(json.Number("7.5")), "∅"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.got.String()
			if tc.got.IsMissing() {
				got = "∅"
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	require.Len(t, snippet([]byte(long)), 203)
	require.Equal(t, "empty body", snippet(nil))
}
