package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/storage/parquet"
	"github.com/xtxerr/feedlog/internal/validation"
)

var (
	exportOut         string
	exportCompression string
)

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: TABLE.parquet in the data dir)")
	exportCmd.Flags().StringVar(&exportCompression, "compression", config.DefaultParquetCompression, "zstd, snappy, gzip, lz4 or none")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export TABLE [--out PATH] [--compression zstd]",
	Short: "Writes a Parquet snapshot of a table.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validation.ValidateTableName(name); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
		compression, err := parquet.ParseCompressionType(exportCompression)
		if err != nil {
			return err
		}

		store := openStore()
		tbl, err := store.Load(name)
		if err != nil {
			return err
		}
		if tbl.Empty() {
			return errors.NewNotFound("table", name)
		}

		out := exportOut
		if out == "" {
			out = filepath.Join(store.Dir(), name+".parquet")
		}

		opts := parquet.DefaultOptions()
		opts.Compression = compression
		n, err := parquet.WriteTable(out, name, tbl, opts)
		if err != nil {
			return errors.NewPersistence(name, "export", out, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d columns -> %s\n", name, n, len(tbl.Columns), out)
		return nil
	},
}
