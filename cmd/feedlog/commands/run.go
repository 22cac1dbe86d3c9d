package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/xtxerr/feedlog/internal/collector"
	"github.com/xtxerr/feedlog/internal/constants"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/loader"
	"github.com/xtxerr/feedlog/internal/logging"
	"github.com/xtxerr/feedlog/internal/metrics"
	"github.com/xtxerr/feedlog/internal/names"
	"github.com/xtxerr/feedlog/internal/scheduler"
	"github.com/xtxerr/feedlog/internal/source"
)

var (
	runEvery   time.Duration
	runSources []string
)

func init() {
	runCmd.Flags().DurationVar(&runEvery, "every", 0, "repeat the run at this interval until interrupted")
	runCmd.Flags().StringSliceVar(&runSources, "source", nil, "only run these sources (prices, rankings, statistics)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--every DURATION] [--source NAME ...]",
	Short: "Fetches every enabled source once and appends the records to its table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adapters, err := buildAdapters(cfg, runSources)
		if err != nil {
			return err
		}

		m := metrics.New()
		runner := collector.NewRunner(openStore(), m)
		out := cmd.OutOrStdout()

		runOnce := func(ctx context.Context) *collector.Report {
			report := runner.RunAll(ctx, adapters)
			printReport(out, report)
			if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				logging.Warn("metrics textfile not written", "path", cfg.Metrics.Textfile, "error", err)
			}
			return report
		}

		if runEvery <= 0 {
			if runOnce(cmd.Context()).AllFailed() {
				return errAllFailed
			}
			return nil
		}

		err = scheduler.Loop(cmd.Context(), runEvery, func(ctx context.Context) { runOnce(ctx) })
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// buildAdapters returns the enabled adapters in registration order,
// restricted to only when it is not empty.
func buildAdapters(c *loader.Config, only []string) ([]source.Adapter, error) {
	for _, name := range only {
		if !constants.IsValidSource(name) {
			return nil, fmt.Errorf("unknown source %q (want one of %s)", name, strings.Join(constants.Sources, ", "))
		}
	}
	want := func(name string, enabled bool) (bool, error) {
		if len(only) == 0 {
			return enabled, nil
		}
		if !slices.Contains(only, name) {
			return false, nil
		}
		if !enabled {
			return false, fmt.Errorf("source %q is disabled in the config", name)
		}
		return true, nil
	}

	opts := c.HTTPOptions()
	var adapters []source.Adapter

	if ok, err := want(constants.SourcePrices, c.Sources.Prices.Enabled); err != nil {
		return nil, err
	} else if ok {
		adapters = append(adapters, source.NewPrices(c.PricesConfig(), opts))
	}

	if ok, err := want(constants.SourceRankings, c.Sources.Rankings.Enabled); err != nil {
		return nil, err
	} else if ok {
		lookup := source.NewAppDetails(c.AppDetailsConfig(), opts)
		cache := names.Open(c.NamesPath(), lookup)
		adapters = append(adapters, source.NewRankings(c.RankingsConfig(), cache, opts))
	}

	if ok, err := want(constants.SourceStatistics, c.Sources.Statistics.Enabled); err != nil {
		return nil, err
	} else if ok {
		adapters = append(adapters, source.NewStatistics(c.StatisticsConfig(), opts))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no source enabled")
	}
	return adapters, nil
}

// printReport shows a summary table on a terminal. Elsewhere the run's log
// lines already carry the same information.
func printReport(w io.Writer, report *collector.Report) {
	if !isTerminal(w) {
		return
	}

	t := newTable(w)
	t.AppendHeader(header("Source", "Table", "Rows", "New columns", "Duration", "Result"))
	for _, res := range report.Results {
		result := "ok"
		if res.Err != nil {
			result = fmt.Sprintf("%s failed: %v", res.Stage, res.Err)
		}
		t.AppendRow(table.Row{
			res.Source,
			res.Table,
			res.RowsAppended,
			strings.Join(res.ColumnsAdded, ", "),
			res.Duration.Round(time.Millisecond),
			result,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", report.Duration().Round(time.Millisecond),
		fmt.Sprintf("%d/%d ok", report.Succeeded(), len(report.Results))})
	t.Render()
}
