package table

// Table is an ordered, append-only set of rows sharing one column set.
//
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has neither columns nor rows.
func (t *Table) Empty() bool { return len(t.Columns) == 0 && len(t.Rows) == 0 }

// Index returns the position of a column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddColumn appends a column, filling existing rows with Missing.
// It reports false if the column already exists.
func (t *Table) AddColumn(name string) bool {
	if t.Index(name) >= 0 {
		return false
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], Missing)
	}
	return true
}

// AppendRecords appends records after the existing rows, in order.
//
// Columns are aligned by name. A column the table lacks is added (old rows
// get Missing); a table column the record lacks gets Missing in the new row.
// It returns the names of the columns that were added.
func (t *Table) AppendRecords(records []Record) []string {
	var added []string
	for _, r := range records {
		cols := r.Columns()
		vals := r.Values()

		for _, c := range cols {
			if t.AddColumn(c) {
				added = append(added, c)
			}
		}

		row := make([]Value, len(t.Columns))
		for i, c := range cols {
			row[t.Index(c)] = vals[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return added
}

// Cell returns the value at row i in the named column, Missing if the
// column does not exist.
func (t *Table) Cell(i int, name string) Value {
	idx := t.Index(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Missing
	}
	return t.Rows[i][idx]
}

// Column returns all values of the named column, nil if it does not exist.
func (t *Table) Column(name string) []Value {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}
