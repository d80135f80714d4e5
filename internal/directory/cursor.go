package directory

// Cursor is a query result: a column list and zero or more rows whose
// values line up with it. Columns the provider does not know are nil.
type Cursor struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func newCursor(projection []string) *Cursor {
	return &Cursor{
		Columns: append([]string(nil), projection...),
		Rows:    [][]any{},
	}
}

// addRow appends one row, asking value for each projected column.
func (c *Cursor) addRow(value func(column string) any) {
	row := make([]any, len(c.Columns))
	for i, col := range c.Columns {
		row[i] = value(col)
	}
	c.Rows = append(c.Rows, row)
}

// Len returns the number of rows.
func (c *Cursor) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Rows)
}

// Value returns the value of column in row. The second result is false when
// the row or column does not exist.
func (c *Cursor) Value(row int, column string) (any, bool) {
	if c == nil || row < 0 || row >= len(c.Rows) {
		return nil, false
	}
	for i, col := range c.Columns {
		if col == column {
			return c.Rows[row][i], true
		}
	}
	return nil, false
}
