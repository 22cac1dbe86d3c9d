// Package parquet exports tables as Parquet snapshots.
//
// The schema is built from the table's header: one optional string column
// per table column, with the missing sentinel written as null. Parquet
// groups order their fields by name, so the header order is kept in the
// file's key/value metadata and restored on read.
package parquet

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/xtxerr/feedlog/config"
	"github.com/xtxerr/feedlog/internal/fsutil"
	"github.com/xtxerr/feedlog/internal/logging"
	"github.com/xtxerr/feedlog/internal/table"
)

var log = logging.Component("parquet")

// ColumnsKey is the metadata key holding the header, as a JSON array, in
// table order.
const ColumnsKey = "feedlog.columns"

// Options configures the Parquet writer.
type Options struct {
	// Compression algorithm
	Compression CompressionType

	// RowGroupSize is the maximum number of rows per row group.
	RowGroupSize int64
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

func (c CompressionType) String() string {
	switch c {
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionGzip:
		return "gzip"
	default:
		return "none"
	}
}

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	c, _ := ParseCompressionType(config.DefaultParquetCompression)
	return Options{
		Compression:  c,
		RowGroupSize: 100000,
	}
}

// ParseCompressionType parses a compression name.
func ParseCompressionType(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "snappy":
		return CompressionSnappy, nil
	case "zstd", "":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "gzip":
		return CompressionGzip, nil
	case "none", "uncompressed":
		return CompressionNone, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q (want zstd, snappy, gzip, lz4 or none)", s)
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// Schema builds the Parquet schema for a table header.
func Schema(name string, columns []string) (*parquet.Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", name)
	}
	group := parquet.Group{}
	for _, c := range columns {
		if _, dup := group[c]; dup {
			return nil, fmt.Errorf("table %s: duplicate column %q", name, c)
		}
		group[c] = parquet.Optional(parquet.String())
	}
	return parquet.NewSchema(name, group), nil
}

// WriteTable writes t to path, replacing any existing file atomically.
// It returns the number of rows written.
func WriteTable(path, name string, t *table.Table, opts Options) (int64, error) {
	schema, err := Schema(name, t.Columns)
	if err != nil {
		return 0, err
	}

	// Leaf index of each table column, in table order.
	leaves := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		leaf, ok := schema.Lookup(c)
		if !ok {
			return 0, fmt.Errorf("column %q missing from schema", c)
		}
		leaves[i] = leaf.ColumnIndex
	}

	header, err := json.Marshal(t.Columns)
	if err != nil {
		return 0, err
	}

	writerOpts := []parquet.WriterOption{
		schema,
		parquet.Compression(getCompression(opts.Compression)),
		parquet.KeyValueMetadata(ColumnsKey, string(header)),
		parquet.CreatedBy("feedlog", "", ""),
	}
	if opts.RowGroupSize > 0 {
		writerOpts = append(writerOpts, parquet.MaxRowsPerRowGroup(opts.RowGroupSize))
	}

	var written int64
	err = fsutil.AtomicWrite(path, config.DefaultFilePerm, func(out io.Writer) error {
		w := parquet.NewWriter(out, writerOpts...)

		rows := make([]parquet.Row, 0, t.Len())
		for _, cells := range t.Rows {
			rows = append(rows, toRow(cells, leaves))
		}
		if len(rows) > 0 {
			n, err := w.WriteRows(rows)
			if err != nil {
				return fmt.Errorf("write rows: %w", err)
			}
			written = int64(n)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close writer: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug("table exported", "table", name, "path", path, "rows", written, "compression", opts.Compression.String())
	return written, nil
}

// toRow orders cells by leaf index, as parquet.Row requires.
func toRow(cells []table.Value, leaves []int) parquet.Row {
	row := make(parquet.Row, len(leaves))
	for i, leaf := range leaves {
		var v table.Value
		if i < len(cells) {
			v = cells[i]
		}
		if v.IsMissing() {
			row[leaf] = parquet.NullValue().Level(0, 0, leaf)
			continue
		}
		row[leaf] = parquet.ByteArrayValue([]byte(v.String())).Level(0, 1, leaf)
	}
	return row
}
