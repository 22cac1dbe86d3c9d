package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/storage/aggregate"
	feedtable "github.com/xtxerr/feedlog/internal/table"
	"github.com/xtxerr/feedlog/internal/validation"
)

var (
	statsSubject string
	statsValue   string
	statsSince   time.Duration
)

func init() {
	statsCmd.Flags().StringVar(&statsSubject, "subject", "", "column to group by (default: the table's subject column)")
	statsCmd.Flags().StringVar(&statsValue, "value", "", "numeric column to summarize")
	statsCmd.Flags().DurationVar(&statsSince, "since", 0, "only rows collected within this duration")
	_ = statsCmd.MarkFlagRequired("value")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:     "stats TABLE --value COLUMN [--subject COLUMN] [--since DURATION]",
	Short:   "Summarizes a numeric column per subject: count, min, max, mean, last and percentiles.",
	Example: `  feedlog stats crypto_data --value price --since 168h`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validation.ValidateTableName(name); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
		tbl, err := openStore().Load(name)
		if err != nil {
			return err
		}
		if tbl.Empty() {
			return errors.NewNotFound("table", name)
		}

		subject := statsSubject
		if subject == "" {
			subject = subjectColumn(tbl)
		}

		opts := aggregate.Options{}
		if statsSince > 0 {
			opts.Since = time.Now().Add(-statsSince)
		}
		summaries, err := aggregate.Summarize(tbl, subject, statsValue, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		t := newTable(out)
		t.AppendHeader(header(subject, "count", "min", "max", "mean", "last", "p50", "p90", "p99", "latest"))
		for _, s := range summaries {
			t.AppendRow(table.Row{
				s.Subject, s.Count,
				num(s.Min), num(s.Max), num(s.Mean), num(s.Last),
				optNum(s.P50), optNum(s.P90), optNum(s.P99),
				latest(s.Latest),
			})
		}
		render(out, t)
		return nil
	},
}

// subjectColumn is the first column after time, where every source puts
// its subject.
func subjectColumn(t *feedtable.Table) string {
	for _, c := range t.Columns {
		if c != feedtable.TimeColumn {
			return c
		}
	}
	return ""
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func optNum(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.4g", *f)
}

func latest(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return feedtable.FormatTime(t)
}
