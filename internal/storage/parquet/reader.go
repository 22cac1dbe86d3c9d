package parquet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/xtxerr/feedlog/internal/table"
)

// FileInfo holds information about an exported file.
type FileInfo struct {
	Path    string
	Size    int64
	NumRows int64
	Columns []string
}

// Stat opens path and reads its footer.
func Stat(path string) (*FileInfo, error) {
	f, pf, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return &FileInfo{
		Path:    path,
		Size:    pf.Size(),
		NumRows: pf.NumRows(),
		Columns: columns(pf),
	}, nil
}

// ReadColumns returns the column names in table order.
func ReadColumns(path string) ([]string, error) {
	info, err := Stat(path)
	if err != nil {
		return nil, err
	}
	return info.Columns, nil
}

// NumRows returns the number of rows in the file.
func NumRows(path string) (int64, error) {
	info, err := Stat(path)
	if err != nil {
		return 0, err
	}
	return info.NumRows, nil
}

// ReadTable reads a file written by WriteTable back into a table.
func ReadTable(path string) (*table.Table, error) {
	f, pf, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cols := columns(pf)
	t := table.New(cols...)

	// Table position of each leaf column.
	pos := make(map[int]int, len(cols))
	for i, c := range cols {
		leaf, ok := pf.Schema().Lookup(c)
		if !ok {
			return nil, fmt.Errorf("column %q not in file schema", c)
		}
		pos[leaf.ColumnIndex] = i
	}

	r := parquet.NewReader(pf)
	defer r.Close()

	buf := make([]parquet.Row, 128)
	for {
		n, err := r.ReadRows(buf)
		for _, row := range buf[:n] {
			cells := make([]table.Value, len(cols))
			for _, v := range row {
				i, ok := pos[v.Column()]
				if !ok || v.IsNull() {
					continue
				}
				cells[i] = table.Text(string(v.ByteArray()))
			}
			t.Rows = append(t.Rows, cells)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
	}
	return t, nil
}

func open(path string) (*os.File, *parquet.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open parquet: %w", err)
	}
	return f, pf, nil
}

// columns prefers the stored header and falls back to schema order for
// files written by other tools.
func columns(pf *parquet.File) []string {
	if v, ok := pf.Lookup(ColumnsKey); ok {
		var cols []string
		if err := json.Unmarshal([]byte(v), &cols); err == nil && len(cols) > 0 {
			return cols
		}
	}
	var out []string
	for _, field := range pf.Schema().Fields() {
		out = append(out, field.Name())
	}
	return out
}
