package pipeline

import (
	"regexp"
	"strings"

	"fitout/internal"
	"fitout/internal/util"
)

var placeholderLabel = regexp.MustCompile(`^col_\d+$`)

// NormalizeTable turns a raw grid into a table with real column labels.
// Tables that already carry real labels only lose their empty columns.
// Tables under placeholder labels are scanned for a header row; when one is
// found its cells become the labels and only the rows below it survive.
// When the scan comes up empty the placeholder labels stay and the row
// origin stamps are cleared, since without a known header the remaining
// rows cannot anchor images. Tables narrower than two columns pass through
// untouched.
func NormalizeTable(table internal.RawTable, prof Profile) internal.RawTable {
	if len(table.Columns) < 2 {
		return table
	}
	if !hasPlaceholderLabels(table.Columns) {
		return dropEmptyColumns(table)
	}

	headerIdx := findHeaderRow(table, prof)
	if headerIdx < 0 {
		out := internal.RawTable{
			Source:  table.Source,
			Format:  table.Format,
			Sheet:   table.Sheet,
			Columns: table.Columns,
		}
		for _, row := range table.Rows {
			out.Rows = append(out.Rows, rawRow(table.Columns, cellsInOrder(row, table.Columns), 0))
		}
		return dropEmptyColumns(out)
	}

	header := cellsInOrder(table.Rows[headerIdx], table.Columns)
	labels := makeLabels(header)

	out := internal.RawTable{
		Source:  table.Source,
		Format:  table.Format,
		Sheet:   table.Sheet,
		Columns: labels,
	}
	for _, row := range table.Rows[headerIdx+1:] {
		cells := cellsInOrder(row, table.Columns)
		if emptyRow(cells) {
			continue
		}
		out.Rows = append(out.Rows, rawRow(labels, cells, row.SourceRow))
	}
	return dropEmptyColumns(out)
}

func hasPlaceholderLabels(columns []string) bool {
	for _, label := range columns {
		if placeholderLabel.MatchString(label) {
			return true
		}
	}
	return false
}

// findHeaderRow scans the leading rows for the first one that reads like a
// header: at least MinHeaderHits non-empty cells, with a header keyword
// somewhere in the joined text. HeaderScanRows bounds the scan depth; zero
// scans every row.
func findHeaderRow(table internal.RawTable, prof Profile) int {
	limit := len(table.Rows)
	if prof.HeaderScanRows > 0 && prof.HeaderScanRows < limit {
		limit = prof.HeaderScanRows
	}
	for i := 0; i < limit; i++ {
		values := []string{}
		for _, label := range table.Columns {
			if cell := util.CleanCell(table.Rows[i].Cells[label]); cell != "" {
				values = append(values, cell)
			}
		}
		if len(values) < prof.MinHeaderHits {
			continue
		}
		if containsKeyword(strings.Join(values, " "), prof.HeaderKeywords) {
			return i
		}
	}
	return -1
}

// dropEmptyColumns removes every column whose cells are empty in all rows.
func dropEmptyColumns(table internal.RawTable) internal.RawTable {
	keep := []string{}
	for _, label := range table.Columns {
		for _, row := range table.Rows {
			if util.CleanCell(row.Cells[label]) != "" {
				keep = append(keep, label)
				break
			}
		}
	}
	if len(keep) == len(table.Columns) {
		return table
	}

	out := internal.RawTable{
		Source:  table.Source,
		Format:  table.Format,
		Sheet:   table.Sheet,
		Columns: keep,
	}
	for _, row := range table.Rows {
		out.Rows = append(out.Rows, rawRow(keep, cellsInOrder(row, keep), row.SourceRow))
	}
	return out
}

func containsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func cellsInOrder(row internal.RawRow, columns []string) []string {
	out := make([]string, len(columns))
	for i, label := range columns {
		out[i] = row.Cells[label]
	}
	return out
}
