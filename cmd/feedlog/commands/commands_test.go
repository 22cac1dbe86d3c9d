package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xtxerr/feedlog/internal/loader"
)

func adapterNames(t *testing.T, c *loader.Config, only ...string) []string {
	t.Helper()
	adapters, err := buildAdapters(c, only)
	require.NoError(t, err)
	var out []string
	for _, a := range adapters {
		out = append(out, a.Name())
	}
	return out
}

func TestBuildAdapters(t *testing.T) {
	c := loader.DefaultConfig()
	c.DataDir = t.TempDir()

	require.Equal(t, []string{"prices", "rankings", "statistics"}, adapterNames(t, c))
	require.Equal(t, []string{"prices", "statistics"}, adapterNames(t, c, "statistics", "prices"))

	c.Sources.Rankings.Enabled = false
	require.Equal(t, []string{"prices", "statistics"}, adapterNames(t, c))

	_, err := buildAdapters(c, []string{"rankings"})
	require.ErrorContains(t, err, "disabled")

	_, err = buildAdapters(c, []string{"weather"})
	require.ErrorContains(t, err, "unknown source")

	c.Sources.Prices.Enabled = false
	c.Sources.Statistics.Enabled = false
	_, err = buildAdapters(c, nil)
	require.Error(t, err)
}

// resetFlags restores flag variables; cobra only assigns the flags that
// appear in args.
func resetFlags() {
	cfgPath, dataDir, logLevel, logJSON = defaultConfigFile, "", "", false
	runEvery, runSources = 0, nil
	statsSubject, statsValue, statsSince = "", "", 0
	exportOut, exportCompression = "", "zstd"
	cfg = nil
}

// execute runs the root command with args from a clean flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fakeUpstreams(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"bitcoin","current_price":100,"market_cap":5},{"id":"ethereum","current_price":10}]`)
	})
	mux.HandleFunc("/ISteamChartsService/GetMostPlayedGames/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, dir, base string) string {
	t.Helper()
	path := filepath.Join(dir, "feedlog.yaml")
	content := fmt.Sprintf(`
data_dir: %s
log:
  level: error
http:
  timeout: 2s
metrics:
  textfile: %s
sources:
  prices:
    url: %s
  rankings:
    url: %s
    details_url: %s
  statistics:
    enabled: false
`, filepath.Join(dir, "data"), filepath.Join(dir, "feedlog.prom"), base, base, base)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCommandIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	srv := fakeUpstreams(t)
	cfgFile := writeConfig(t, dir, srv.URL)

	_, err := execute(t, "run", "--config", cfgFile)
	require.NoError(t, err, "one source succeeded, so the run succeeds")

	data, err := os.ReadFile(filepath.Join(dir, "data", "crypto_data.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "time,name,price,change_24h,change_7d,market_cap", lines[0])
	require.True(t, strings.HasSuffix(lines[2], ",ethereum,10,,,"), lines[2])

	_, err = os.Stat(filepath.Join(dir, "data", "steam_data.csv"))
	require.True(t, os.IsNotExist(err))

	prom, err := os.ReadFile(filepath.Join(dir, "feedlog.prom"))
	require.NoError(t, err)
	require.Contains(t, string(prom), `feedlog_source_runs_total{result="upstream",source="rankings"} 1`)
}

func TestRunCommandAllFailed(t *testing.T) {
	dir := t.TempDir()
	srv := fakeUpstreams(t)
	cfgFile := writeConfig(t, dir, srv.URL)

	_, err := execute(t, "run", "--config", cfgFile, "--source", "rankings")
	require.ErrorIs(t, err, errAllFailed)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := execute(t, "names", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNamesCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "names.yaml"), []byte("\"730\": Counter-Strike 2\n"), 0o644))

	out, err := execute(t, "names", "--data-dir", dir, "--config", filepath.Join(dir, "none.yaml"))
	require.Error(t, err, "explicit missing config")

	out, err = execute(t, "names", "--data-dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "730,Counter-Strike 2")
}
