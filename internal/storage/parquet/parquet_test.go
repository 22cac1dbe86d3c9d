package parquet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xtxerr/feedlog/internal/table"
	"github.com/xtxerr/feedlog/internal/testutil"
)

func sampleTable() *table.Table {
	t := table.New("time", "name", "price", "change_24h")
	t.Rows = [][]table.Value{
		{table.Text("2024-03-01T12:00:00Z"), table.Text("bitcoin"), table.Text("61234.5"), table.Text("1.25")},
		{table.Text("2024-03-01T12:00:00Z"), table.Text("ethereum"), table.Text("3100"), table.Missing},
	}
	return t
}

func TestWriteTableRoundTrip(t *testing.T) {
	for _, c := range []string{"zstd", "snappy", "gzip", "lz4", "none"} {
		t.Run(c, func(t *testing.T) {
			ct, err := ParseCompressionType(c)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), "crypto_data.parquet")

			want := sampleTable()
			n, err := WriteTable(path, "crypto_data", want, Options{Compression: ct})
			if err != nil {
				t.Fatalf("WriteTable() error = %v", err)
			}
			if n != 2 {
				t.Errorf("rows written = %d, want 2", n)
			}

			got, err := ReadTable(path)
			if err != nil {
				t.Fatalf("ReadTable() error = %v", err)
			}
			if diff := cmp.Diff(testutil.Cells(want), testutil.Cells(got)); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestColumnsKeepTableOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steam.parquet")
	tbl := table.New("time", "appid", "name", "rank")
	tbl.Rows = [][]table.Value{{table.Text("t"), table.Int(730), table.Text("CS2"), table.Int(1)}}

	if _, err := WriteTable(path, "steam_data", tbl, DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	cols, err := ReadColumns(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"time", "appid", "name", "rank"}, cols); diff != "" {
		t.Errorf("columns (-want +got):\n%s", diff)
	}

	n, err := NumRows(path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("NumRows = %d, want 1", n)
	}
}

func TestWriteEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")

	if _, err := WriteTable(path, "empty", table.New(), DefaultOptions()); err == nil {
		t.Fatal("expected error for a table without columns")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("no file should be left behind, stat err = %v", err)
	}

	n, err := WriteTable(path, "header_only", table.New("time", "name"), DefaultOptions())
	if err != nil {
		t.Fatalf("WriteTable(header only) error = %v", err)
	}
	if n != 0 {
		t.Errorf("rows = %d, want 0", n)
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		in      string
		want    CompressionType
		wantErr bool
	}{
		{"", CompressionZstd, false},
		{"ZSTD", CompressionZstd, false},
		{"snappy", CompressionSnappy, false},
		{"uncompressed", CompressionNone, false},
		{"brotli", CompressionNone, true},
	}
	for _, tt := range tests {
		got, err := ParseCompressionType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCompressionType(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCompressionType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
