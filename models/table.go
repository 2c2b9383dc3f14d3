package models

// Table is a loaded tabular file with named columns.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Value returns the cell at row i of the named column, or "" when absent.
func (t *Table) Value(i int, name string) string {
	col, ok := t.ColumnIndex(name)
	if !ok || i < 0 || i >= len(t.Rows) || col >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][col]
}

// RowSpace addresses two concatenated tables with one global index:
// [0, Primary) is the primary table and [Primary, Primary+Secondary) the secondary.
type RowSpace struct {
	Primary   int
	Secondary int
}

// Len is the number of addressable rows.
func (s RowSpace) Len() int { return s.Primary + s.Secondary }

// Resolve maps a global row index to a table (0 primary, 1 secondary) and local index.
func (s RowSpace) Resolve(global int) (table, local int, ok bool) {
	switch {
	case global >= 0 && global < s.Primary:
		return 0, global, true
	case global >= s.Primary && global < s.Primary+s.Secondary:
		return 1, global - s.Primary, true
	default:
		return -1, -1, false
	}
}

// GlobalID is the inverse of Resolve.
func (s RowSpace) GlobalID(table, local int) int {
	if table == 0 {
		return local
	}
	return s.Primary + local
}

// ViewRow is a canonical row tagged with its global RowID.
type ViewRow struct {
	RowID int `json:"row_id"`
	CanonicalRow
}

// Set writes value into row i of the named column, adding the column when it
// does not exist yet.
func (t *Table) Set(i int, name, value string) {
	col, ok := t.ColumnIndex(name)
	if !ok {
		t.Header = append(t.Header, name)
		col = len(t.Header) - 1
	}
	for len(t.Rows[i]) <= col {
		t.Rows[i] = append(t.Rows[i], "")
	}
	t.Rows[i][col] = value
}

// Len is the number of data rows; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
