package table

// Table holds rows with their current display order, visibility and sort state.
type Table struct {
	columns []ColumnSpec
	rows    []Row
	order   []int
	hidden  []bool
	filter  Filter
	sort    SortState
}

// New returns a table in input order with every row visible.
func New(columns []ColumnSpec, rows []Row) *Table {
	t := &Table{
		columns: columns,
		rows:    rows,
		order:   make([]int, len(rows)),
		hidden:  make([]bool, len(rows)),
		sort:    NoSort(),
	}
	for i := range rows {
		t.order[i] = i
	}
	return t
}

// Columns returns the column specs.
func (t *Table) Columns() []ColumnSpec {
	return t.columns
}

// Len returns the number of rows, hidden included.
func (t *Table) Len() int {
	return len(t.rows)
}

// Filter returns the active filter.
func (t *Table) Filter() Filter {
	return t.filter
}

// SortState returns the active sort state.
func (t *Table) SortState() SortState {
	return t.sort
}

// SetFilter recomputes visibility. Display order is left untouched.
func (t *Table) SetFilter(f Filter) {
	t.filter = f
	for i, row := range t.rows {
		t.hidden[i] = !Visible(row, f)
	}
}

// SortBy handles a click on a column header and reorders the visible rows.
// Hidden rows keep their relative order ahead of the sorted visible rows.
// It reports false when the column does not exist or is not sortable.
func (t *Table) SortBy(col int) (ascending bool, ok bool) {
	spec, found := t.column(col)
	if !found || !spec.Sortable {
		return false, false
	}
	ascending = t.sort.Toggle(col)
	t.applySort(spec, ascending)
	return ascending, true
}

// SetSort applies an explicit sort state, e.g. restored from a request.
func (t *Table) SetSort(col int, ascending bool) bool {
	spec, found := t.column(col)
	if !found || !spec.Sortable {
		return false
	}
	t.sort = SortState{Column: col, Ascending: ascending}
	t.applySort(spec, ascending)
	return true
}

func (t *Table) applySort(spec ColumnSpec, ascending bool) {
	var hidden, visible []int
	for _, idx := range t.order {
		if t.hidden[idx] {
			hidden = append(hidden, idx)
		} else {
			visible = append(visible, idx)
		}
	}
	sorted := Order(t.rows, visible, spec.Index, spec.Type, ascending)
	t.order = append(hidden, sorted...)
}

func (t *Table) column(col int) (ColumnSpec, bool) {
	for _, spec := range t.columns {
		if spec.Index == col {
			return spec, true
		}
	}
	return ColumnSpec{}, false
}

// Order returns row indices in display order, hidden rows included.
func (t *Table) Order() []int {
	return append([]int(nil), t.order...)
}

// Hidden reports whether row index i is hidden.
func (t *Table) Hidden(i int) bool {
	return i >= 0 && i < len(t.hidden) && t.hidden[i]
}

// VisibleRows returns the visible rows in display order.
func (t *Table) VisibleRows() []Row {
	out := make([]Row, 0, len(t.rows))
	for _, idx := range t.order {
		if !t.hidden[idx] {
			out = append(out, t.rows[idx])
		}
	}
	return out
}

// VisibleCount returns the number of visible rows.
func (t *Table) VisibleCount() int {
	n := 0
	for _, h := range t.hidden {
		if !h {
			n++
		}
	}
	return n
}

// Rows returns every row in display order, hidden rows included.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.order))
	for i, idx := range t.order {
		out[i] = t.rows[idx]
	}
	return out
}
