package tabular_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modforge/gffkit/tabular"
)

func appearanceTable(rows int) *tabular.MemoryTable {
	t := tabular.NewMemoryTable("label", "race", "modeltype")
	for i := 0; i < rows; i++ {
		t.AddRow("", map[string]string{"label": "Base", "race": "c", "modeltype": "F"})
	}
	return t
}

func TestDiffAddedRows(t *testing.T) {
	old := appearanceTable(3)
	new := appearanceTable(3)
	new.AddRow("512", map[string]string{"label": "CustomOrc", "race": "o"})

	d := tabular.Diff("appearance.2da", old, new)
	require.Len(t, d.AddedRows, 1)
	require.Equal(t, 3, d.AddedRows[0].Index)
	require.Equal(t, "512", d.AddedRows[0].Label)
	require.Equal(t, "CustomOrc", d.AddedRows[0].Cells["label"])
	require.Empty(t, d.ChangedCells)
	require.Empty(t, d.AddedColumns)
}

func TestDiffChangedCells(t *testing.T) {
	old := appearanceTable(2)
	new := appearanceTable(2)
	new.SetCell(1, "race", "x")

	d := tabular.Diff("appearance.2da", old, new)
	require.Empty(t, d.AddedRows)
	require.Len(t, d.ChangedCells, 1)
	require.Equal(t, tabular.CellChange{Row: 1, Col: "race", Old: "c", New: "x"}, d.ChangedCells[0])
}

func TestDiffAddedColumn(t *testing.T) {
	old := appearanceTable(2)
	new := tabular.NewMemoryTable("label", "race", "modeltype", "portrait")
	for i := 0; i < 2; i++ {
		new.AddRow("", map[string]string{"label": "Base", "race": "c", "modeltype": "F", "portrait": "po_1"})
	}

	d := tabular.Diff("appearance.2da", old, new)
	require.Equal(t, []string{"portrait"}, d.AddedColumns)
	// New-column cells on shared rows surface as changes.
	require.Len(t, d.ChangedCells, 2)
}

func TestMemoryTableBounds(t *testing.T) {
	tbl := appearanceTable(1)
	_, ok := tbl.Cell(5, "label")
	require.False(t, ok)
	require.Equal(t, "", tbl.RowLabel(5))
}

func TestMemoryTalkTable(t *testing.T) {
	tlk := tabular.NewMemoryTalkTable()
	id := tlk.Append("A mysterious stranger.")
	require.Equal(t, int32(0), id)

	text, ok := tlk.Text(id)
	require.True(t, ok)
	require.Equal(t, "A mysterious stranger.", text)

	_, ok = tlk.Text(99)
	require.False(t, ok)
	_, ok = tlk.Text(-1)
	require.False(t, ok)

	tlk.SetText(id, "A familiar stranger.")
	text, ok = tlk.Text(id)
	require.True(t, ok)
	require.Equal(t, "A familiar stranger.", text)

	// Out-of-range replacement is a no-op.
	tlk.SetText(99, "x")
	tlk.SetText(-1, "x")
}
