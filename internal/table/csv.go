package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Decode reads a table written by Encode.
//
// Input that is empty or only whitespace decodes to an empty table. Rows
// shorter than the header are padded with Missing; longer rows are an
// error, since their extra cells would have no column.
func Decode(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	header := records[0]
	t := New()
	for _, name := range header {
		if !t.AddColumn(name) {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
	}

	t.Rows = make([][]Value, 0, len(records)-1)
	for n, rec := range records[1:] {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("line %d: %d cells for %d columns", n+2, len(rec), len(header))
		}
		row := make([]Value, len(header))
		for i, cell := range rec {
			row[i] = Text(cell)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// Encode writes the header row and every data row. A table without
// columns writes nothing.
func Encode(w io.Writer, t *Table) error {
	if len(t.Columns) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}

	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			cells[i] = v.String()
		}
		if err := cw.Write(cells); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
