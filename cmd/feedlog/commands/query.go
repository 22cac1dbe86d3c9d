package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/xtxerr/feedlog/internal/logging"
	"github.com/xtxerr/feedlog/internal/storage/query"
)

func init() {
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query SQL",
	Short: "Runs SQL over the tables; each table is a view named after it.",
	Example: `  feedlog query "SELECT name, avg(price) FROM crypto_data GROUP BY name"
  feedlog query "SELECT * FROM steam_data ORDER BY time DESC LIMIT 10"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := query.New(cmd.Context(), openStore())
		if err != nil {
			return err
		}
		defer svc.Close()

		res, err := svc.Query(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		t := newTable(out)
		t.AppendHeader(header(res.Columns...))
		for _, r := range res.Rows {
			row := make(table.Row, len(r))
			for i, v := range r {
				row[i] = v
			}
			t.AppendRow(row)
		}
		render(out, t)

		logging.Debug("query finished", "rows", len(res.Rows), "elapsed", res.Elapsed)
		return nil
	},
}
