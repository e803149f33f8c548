package pipeline

import (
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"fitout/internal"
)

func ExportComparisonXLSX(table internal.ComparisonTable, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"base_item", "source_sheet", "source_row"}
	for _, supplier := range table.Suppliers {
		headers = append(headers,
			supplier+"_item",
			supplier+"_price",
			supplier+"_currency",
			supplier+"_unit",
			supplier+"_score",
		)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range table.Rows {
		r := i + 2
		col := 0
		set := func(value any) {
			col++
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(row.BaseItem.ItemName)
		set(row.BaseItem.SourceSheet)
		set(row.BaseItem.SourceRow)
		for _, supplier := range table.Suppliers {
			cellData, ok := row.Cells[supplier]
			if !ok {
				for n := 0; n < 5; n++ {
					set("")
				}
				continue
			}
			set(cellData.ItemName)
			set(priceValue(cellData.Price))
			set(cellData.Currency)
			set(cellData.Unit)
			set(cellData.Score)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func ExportProcurementXLSX(project internal.Project, items []internal.ProcurementItem, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"department", "category", "item_name", "qty", "unit",
		"budget_price", "status", "supplier", "po_number", "notes",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, item := range items {
		r := i + 2
		col := 0
		set := func(value any) {
			col++
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(item.Department)
		set(item.Category)
		set(item.ItemName)
		set(floatValue(item.Qty))
		set(item.Unit)
		set(priceValue(item.BudgetPrice))
		set(item.Status)
		set(item.Supplier)
		set(item.PONumber)
		set(item.Notes)
	}

	title := project.Name
	if project.Hotel != "" {
		title += " - " + project.Hotel
	}
	_ = f.SetDocProps(&excelize.DocProperties{Title: title})

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func priceValue(v *decimal.Decimal) any {
	if v == nil {
		return ""
	}
	return v.InexactFloat64()
}

func floatValue(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
