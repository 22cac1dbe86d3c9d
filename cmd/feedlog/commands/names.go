package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/xtxerr/feedlog/internal/names"
)

func init() {
	rootCmd.AddCommand(namesCmd)
}

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Lists the resolved game names in the name cache.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := names.Open(cfg.NamesPath(), nil)

		out := cmd.OutOrStdout()
		t := newTable(out)
		t.AppendHeader(header("appid", "name"))
		for _, e := range cache.Entries() {
			t.AppendRow(table.Row{e.ID, e.Name})
		}
		render(out, t)
		return nil
	},
}
