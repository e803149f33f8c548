package pipeline

import (
	"testing"

	"fitout/internal"
)

func TestParseHTMLTables(t *testing.T) {
	html := `<html><body>
<p>Please find our offer below.</p>
<table><tr><td>just a layout cell</td></tr></table>
<table>
  <tr><th>Item</th><th>Unit</th><th>Price</th></tr>
  <tr><td>Bar   Stool</td><td>pcs</td><td>120</td></tr>
  <tr><td></td><td></td><td></td></tr>
  <tr><td>Desk</td><td>pcs</td><td>300</td></tr>
</table>
</body></html>`

	tables := ParseHTMLTables(html, "email:<m1>#body")
	if len(tables) != 1 {
		t.Fatalf("tables=%d", len(tables))
	}

	table := tables[0]
	if table.Format != internal.FormatHTML || table.Source != "email:<m1>#body" {
		t.Fatalf("unexpected table: %+v", table)
	}
	// the one-row layout table is not counted
	if table.Sheet != "table_1" {
		t.Fatalf("sheet=%q", table.Sheet)
	}
	if len(table.Columns) != 3 || table.Columns[0] != "col_0" {
		t.Fatalf("columns=%v", table.Columns)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows=%d", len(table.Rows))
	}
	if table.Rows[1].Cells["col_0"] != "Bar Stool" || table.Rows[1].SourceRow != 2 {
		t.Fatalf("unexpected row: %+v", table.Rows[1])
	}
	if table.Rows[2].SourceRow != 4 {
		t.Fatalf("unexpected row: %+v", table.Rows[2])
	}
}

func TestParseHTMLTablesNone(t *testing.T) {
	if tables := ParseHTMLTables("<p>no tables here</p>", "email:<m2>#body"); len(tables) != 0 {
		t.Fatalf("tables=%d", len(tables))
	}
}

func TestParseHTMLTablesNormalized(t *testing.T) {
	html := `<table>
  <tr><td> Item </td><td>Price</td></tr>
  <tr><td>Queen
Bed</td><td>450</td></tr>
</table>`

	tables := ParseHTMLTables(html, "email:<m3>#body")
	if len(tables) != 1 {
		t.Fatalf("tables=%d", len(tables))
	}
	if got := tables[0].Rows[1].Cells["col_0"]; got != "Queen Bed" {
		t.Fatalf("cell=%q", got)
	}
}
