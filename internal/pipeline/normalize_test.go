package pipeline

import (
	"testing"

	"fitout/internal"
)

// grid builds a raw table the way the workbook loader does: placeholder
// labels, SourceRow = sheet row, empty rows dropped.
func grid(sheet string, cells [][]string) internal.RawTable {
	width := 0
	for _, row := range cells {
		if len(row) > width {
			width = len(row)
		}
	}
	table := internal.RawTable{
		Source:  "test.xlsx",
		Format:  internal.FormatXLSX,
		Sheet:   sheet,
		Columns: placeholderLabels(width),
	}
	for i, row := range cells {
		if emptyRow(row) {
			continue
		}
		table.Rows = append(table.Rows, rawRow(table.Columns, row, i+1))
	}
	return table
}

func TestNormalizeTablePromotesHeader(t *testing.T) {
	table := grid("FF&E", [][]string{
		{"Supplier Pricelist 2026"},
		{},
		{"Item", "Description", "Price (USD)"},
		{"Bar Stool", "Oak, black steel", "120"},
		{"Lounge Chair", "Bouclé fabric", "450"},
	})
	table.Rows = append(table.Rows, rawRow(table.Columns, []string{" ", "nan", ""}, 6))

	out := NormalizeTable(table, DefaultProfile())
	if len(out.Columns) != 3 {
		t.Fatalf("columns=%v", out.Columns)
	}
	if out.Columns[0] != "Item" || out.Columns[2] != "Price (USD)" {
		t.Fatalf("columns=%v", out.Columns)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows=%d", len(out.Rows))
	}
	if out.Rows[0].SourceRow != 4 || out.Rows[0].Cells["Item"] != "Bar Stool" {
		t.Fatalf("unexpected first row: %+v", out.Rows[0])
	}
	if out.Rows[1].SourceRow != 5 || out.Rows[1].Cells["Price (USD)"] != "450" {
		t.Fatalf("unexpected second row: %+v", out.Rows[1])
	}
}

func TestNormalizeTableSparseRowNotHeader(t *testing.T) {
	// two filled cells are not enough for a header even with keywords
	table := grid("Sheet1", [][]string{
		{"Item", "Price"},
		{"Item", "Description", "Price"},
		{"Desk", "Walnut", "300"},
	})

	out := NormalizeTable(table, DefaultProfile())
	if len(out.Columns) != 3 || out.Columns[1] != "Description" {
		t.Fatalf("columns=%v", out.Columns)
	}
	if len(out.Rows) != 1 || out.Rows[0].SourceRow != 3 {
		t.Fatalf("unexpected rows: %+v", out.Rows)
	}
}

func TestNormalizeTableNoHeaderFound(t *testing.T) {
	table := grid("Sheet1", [][]string{
		{"A1", "B2", "C3"},
		{"D4", "E5", "F6"},
	})

	out := NormalizeTable(table, DefaultProfile())
	if len(out.Columns) != 3 || out.Columns[0] != "col_0" {
		t.Fatalf("columns=%v", out.Columns)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("rows=%d", len(out.Rows))
	}
	for _, row := range out.Rows {
		if row.SourceRow != 0 {
			t.Fatalf("source row kept without header: %+v", row)
		}
	}
}

func TestNormalizeTableScanDepth(t *testing.T) {
	cells := [][]string{
		{"Acme", "Furniture", "2026"},
		{"Item", "Description", "Price"},
		{"Desk", "Walnut", "300"},
	}

	prof := DefaultProfile()
	prof.HeaderScanRows = 1
	out := NormalizeTable(grid("Sheet1", cells), prof)
	if out.Columns[0] != "col_0" {
		t.Fatalf("columns=%v", out.Columns)
	}

	out = NormalizeTable(grid("Sheet1", cells), DefaultProfile())
	if out.Columns[0] != "Item" || len(out.Rows) != 1 {
		t.Fatalf("columns=%v rows=%d", out.Columns, len(out.Rows))
	}
}

func TestNormalizeTableRealLabelsKept(t *testing.T) {
	columns := []string{"Item", "Notes", "Price"}
	table := internal.RawTable{Source: "list.csv", Format: internal.FormatCSV, Columns: columns}
	table.Rows = append(table.Rows, rawRow(columns, []string{"Bar Stool", "", "120"}, 2))
	table.Rows = append(table.Rows, rawRow(columns, []string{"Desk", "nan", "300"}, 3))

	out := NormalizeTable(table, DefaultProfile())
	if len(out.Columns) != 2 || out.Columns[0] != "Item" || out.Columns[1] != "Price" {
		t.Fatalf("columns=%v", out.Columns)
	}
	if len(out.Rows) != 2 || out.Rows[0].SourceRow != 2 || out.Rows[1].SourceRow != 3 {
		t.Fatalf("unexpected rows: %+v", out.Rows)
	}
}

func TestNormalizeTableNarrowPassThrough(t *testing.T) {
	table := internal.RawTable{
		Source:  "list.csv",
		Format:  internal.FormatCSV,
		Columns: []string{"col_0"},
		Rows:    []internal.RawRow{rawRow([]string{"col_0"}, []string{"lonely"}, 1)},
	}

	out := NormalizeTable(table, DefaultProfile())
	if len(out.Columns) != 1 || out.Columns[0] != "col_0" {
		t.Fatalf("columns=%v", out.Columns)
	}
	if len(out.Rows) != 1 || out.Rows[0].SourceRow != 1 {
		t.Fatalf("unexpected rows: %+v", out.Rows)
	}
}

func TestNormalizeTableDuplicateHeaderLabels(t *testing.T) {
	table := grid("Sheet1", [][]string{
		{"Item", "Price", "Price"},
		{"Stool", "120", "EUR 120"},
	})

	out := NormalizeTable(table, DefaultProfile())
	if len(out.Columns) != 3 || out.Columns[2] != "Price_2" {
		t.Fatalf("columns=%v", out.Columns)
	}
	if out.Rows[0].Cells["Price_2"] != "EUR 120" {
		t.Fatalf("unexpected row: %+v", out.Rows[0])
	}
}
