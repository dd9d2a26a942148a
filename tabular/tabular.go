package tabular

// Table is the read surface of a 2DA-style tabular resource. The codec
// behind it is out of scope here; the patch pipeline only consumes
// (row, column) -> string lookups.
type Table interface {
	// Cell returns the string content of a cell.
	Cell(row int, col string) (string, bool)
	// RowCount returns the number of rows.
	RowCount() int
	// RowLabel returns the label of a row (often, but not always, its
	// index rendered as text).
	RowLabel(row int) string
	// Columns returns the column names in declaration order.
	Columns() []string
}

// TableWriter is the mutation surface a patch run needs from a tabular
// resource: appending rows (returning the final index) and overwriting
// cells in place.
type TableWriter interface {
	AddRow(label string, cells map[string]string) int
	SetCell(row int, col, val string)
}

// TalkTable is the read surface of a TLK-style string table.
type TalkTable interface {
	// Text returns the string for a talk-table index.
	Text(ref int32) (string, bool)
}

// TalkTableWriter is the mutation surface of a TLK-style string table:
// appending entries (returning the new string reference) and replacing
// existing text.
type TalkTableWriter interface {
	Append(text string) int32
	SetText(ref int32, text string)
}

// AddedRow describes one row a modification appended to a table.
type AddedRow struct {
	Index int               // final row index in the modified table
	Label string            // row label in the modified table
	Cells map[string]string // non-empty cells, keyed by column
}

// CellChange describes a single modified cell in a pre-existing row.
type CellChange struct {
	Row int
	Col string
	Old string
	New string
}

// TableDiff is the row-level difference between two versions of a table.
// It is one of the two inputs to token linkage inference.
type TableDiff struct {
	Name         string // table name, e.g. "appearance.2da"
	AddedRows    []AddedRow
	AddedColumns []string
	ChangedCells []CellChange
}

// Diff compares two tables positionally: rows past the old table's count
// are additions, shared rows are scanned cell by cell, and columns present
// only in the new table are reported as added (their cells ride along on
// the owning rows).
func Diff(name string, old, new Table) TableDiff {
	d := TableDiff{Name: name}

	oldCols := make(map[string]bool)
	for _, c := range old.Columns() {
		oldCols[c] = true
	}
	for _, c := range new.Columns() {
		if !oldCols[c] {
			d.AddedColumns = append(d.AddedColumns, c)
		}
	}

	shared := old.RowCount()
	if new.RowCount() < shared {
		shared = new.RowCount()
	}
	for row := 0; row < shared; row++ {
		for _, col := range new.Columns() {
			nv, ok := new.Cell(row, col)
			if !ok {
				continue
			}
			ov, had := old.Cell(row, col)
			if !had && oldCols[col] {
				continue
			}
			if !had || ov != nv {
				d.ChangedCells = append(d.ChangedCells, CellChange{
					Row: row, Col: col, Old: ov, New: nv,
				})
			}
		}
	}

	for row := old.RowCount(); row < new.RowCount(); row++ {
		added := AddedRow{
			Index: row,
			Label: new.RowLabel(row),
			Cells: make(map[string]string),
		}
		for _, col := range new.Columns() {
			if v, ok := new.Cell(row, col); ok && v != "" {
				added.Cells[col] = v
			}
		}
		d.AddedRows = append(d.AddedRows, added)
	}
	return d
}

// MemoryTable is a small in-memory Table, used by tests and fixtures in
// place of a real 2DA codec.
type MemoryTable struct {
	cols   []string
	labels []string
	rows   []map[string]string
}

// NewMemoryTable creates a table with the given column set.
func NewMemoryTable(cols ...string) *MemoryTable {
	return &MemoryTable{cols: cols}
}

// AddRow appends a row and returns its index.
func (m *MemoryTable) AddRow(label string, cells map[string]string) int {
	cp := make(map[string]string, len(cells))
	for k, v := range cells {
		cp[k] = v
	}
	m.labels = append(m.labels, label)
	m.rows = append(m.rows, cp)
	return len(m.rows) - 1
}

// SetCell writes one cell of an existing row.
func (m *MemoryTable) SetCell(row int, col, val string) {
	if row >= 0 && row < len(m.rows) {
		m.rows[row][col] = val
	}
}

// Cell implements Table.
func (m *MemoryTable) Cell(row int, col string) (string, bool) {
	if row < 0 || row >= len(m.rows) {
		return "", false
	}
	v, ok := m.rows[row][col]
	return v, ok
}

// RowCount implements Table.
func (m *MemoryTable) RowCount() int { return len(m.rows) }

// RowLabel implements Table.
func (m *MemoryTable) RowLabel(row int) string {
	if row < 0 || row >= len(m.labels) {
		return ""
	}
	return m.labels[row]
}

// Columns implements Table.
func (m *MemoryTable) Columns() []string { return m.cols }

// MemoryTalkTable is a small in-memory TalkTable.
type MemoryTalkTable struct {
	entries []string
}

// NewMemoryTalkTable creates an empty talk table.
func NewMemoryTalkTable() *MemoryTalkTable {
	return &MemoryTalkTable{}
}

// Append adds a string and returns its index.
func (m *MemoryTalkTable) Append(text string) int32 {
	m.entries = append(m.entries, text)
	return int32(len(m.entries) - 1)
}

// SetText replaces the string at an index. Out-of-range references are
// ignored.
func (m *MemoryTalkTable) SetText(ref int32, text string) {
	if ref < 0 || int(ref) >= len(m.entries) {
		return
	}
	m.entries[ref] = text
}

// Text implements TalkTable.
func (m *MemoryTalkTable) Text(ref int32) (string, bool) {
	if ref < 0 || int(ref) >= len(m.entries) {
		return "", false
	}
	return m.entries[ref], true
}
