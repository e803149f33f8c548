package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"fitout/internal"
	"fitout/internal/util"
)

// LoadFile reads a supplier catalog file into raw tables. The format is
// picked by extension; a workbook yields one table per non-empty sheet.
func LoadFile(path string) ([]internal.RawTable, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return loadCSV(path)
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	case ".pdf":
		return loadPDF(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %q", ext)
	}
}

func loadCSV(path string) ([]internal.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	table := internal.RawTable{Source: path, Format: internal.FormatCSV}
	rowNo := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNo+1, err)
		}
		rowNo++
		if table.Columns == nil {
			table.Columns = makeLabels(record)
			continue
		}
		for len(record) > len(table.Columns) {
			table.Columns = append(table.Columns, fmt.Sprintf("col_%d", len(table.Columns)))
		}
		if emptyRow(record) {
			continue
		}
		table.Rows = append(table.Rows, rawRow(table.Columns, record, rowNo))
	}

	if table.Columns == nil {
		return nil, nil
	}
	return []internal.RawTable{table}, nil
}

func loadXLSX(path string) ([]internal.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return tablesFromWorkbook(f, path)
}

// tablesFromWorkbook delivers every sheet as a raw grid under placeholder
// labels. Header detection happens later in NormalizeTable, so no sheet row
// is consumed here and SourceRow keeps the sheet row number. Sheets without
// content come back as zero-row tables so ingest can report them.
func tablesFromWorkbook(f *excelize.File, source string) ([]internal.RawTable, error) {
	out := []internal.RawTable{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}

		table := internal.RawTable{
			Source:  source,
			Format:  internal.FormatXLSX,
			Sheet:   sheet,
			Columns: placeholderLabels(width),
		}
		for i, row := range rows {
			if emptyRow(row) {
				continue
			}
			table.Rows = append(table.Rows, rawRow(table.Columns, row, i+1))
		}
		out = append(out, table)
	}
	return out, nil
}

func placeholderLabels(width int) []string {
	out := make([]string, width)
	for i := range out {
		out[i] = fmt.Sprintf("col_%d", i)
	}
	return out
}

// makeLabels turns a header row into column labels. Blank cells keep a
// positional placeholder; duplicate labels get numeric suffixes so no cell
// is shadowed.
func makeLabels(cells []string) []string {
	out := make([]string, len(cells))
	seen := map[string]int{}
	for i, cell := range cells {
		label := util.NormalizeSpaces(util.CleanCell(cell))
		if label == "" {
			label = fmt.Sprintf("col_%d", i)
		}
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s_%d", label, n)
		}
		out[i] = label
	}
	return out
}

func rawRow(labels []string, cells []string, sourceRow int) internal.RawRow {
	row := internal.RawRow{Cells: make(map[string]string, len(labels)), SourceRow: sourceRow}
	for i, label := range labels {
		if i < len(cells) {
			row.Cells[label] = cells[i]
		} else {
			row.Cells[label] = ""
		}
	}
	return row
}

func emptyRow(cells []string) bool {
	for _, c := range cells {
		if util.CleanCell(c) != "" {
			return false
		}
	}
	return true
}

func formatForPath(path string) internal.TableFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return internal.FormatCSV
	case ".xlsx", ".xlsm":
		return internal.FormatXLSX
	case ".pdf":
		return internal.FormatPDF
	default:
		return ""
	}
}
