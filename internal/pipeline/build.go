package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fitout/internal"
	"fitout/internal/util"
)

var ErrNoItemColumn = errors.New("no item column recognized")

// BuildItems turns the rows of a classified table into catalog items. A row
// whose item cell is empty is reported as skipped and never becomes an
// item; a table without an item column is rejected as a whole. Rows whose
// currency cell is missing or empty take the default currency, and rows
// with a known origin pick up their extracted image from the anchor map.
func BuildItems(table internal.RawTable, roles map[internal.ColumnRole]string, supplier, defaultCurrency string, images map[ImageKey]string) ([]internal.CatalogItem, []internal.SkippedRow, error) {
	itemCol, ok := roles[internal.RoleItem]
	if !ok {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoItemColumn, tableRef(table))
	}

	items := make([]internal.CatalogItem, 0, len(table.Rows))
	skipped := []internal.SkippedRow{}
	for _, row := range table.Rows {
		name := cleanText(row.Cells[itemCol])
		if name == "" {
			skipped = append(skipped, internal.SkippedRow{SourceRow: row.SourceRow, Reason: "empty item name"})
			continue
		}

		item := internal.CatalogItem{
			ID:            uuid.NewString(),
			Supplier:      supplier,
			ItemName:      name,
			Description:   roleCell(row, roles, internal.RoleDescription),
			Specification: roleCell(row, roles, internal.RoleSpecification),
			Unit:          roleCell(row, roles, internal.RoleUnit),
			Currency:      roleCell(row, roles, internal.RoleCurrency),
			PhotoRef:      roleCell(row, roles, internal.RolePhoto),
			SourceRow:     row.SourceRow,
			SourceSheet:   table.Sheet,
		}
		if item.Currency == "" {
			item.Currency = defaultCurrency
		}
		if priceCol, ok := roles[internal.RolePrice]; ok {
			item.Price = util.ParsePrice(row.Cells[priceCol])
		}
		item.PriceAvailable = item.Price != nil
		if images != nil && row.SourceRow > 0 {
			if path, ok := images[ImageKey{Sheet: table.Sheet, Row: row.SourceRow}]; ok {
				item.ImagePath = path
			}
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

func roleCell(row internal.RawRow, roles map[internal.ColumnRole]string, role internal.ColumnRole) string {
	label, ok := roles[role]
	if !ok {
		return ""
	}
	return cleanText(row.Cells[label])
}

func cleanText(s string) string {
	return util.NormalizeSpaces(util.CleanCell(s))
}

func tableRef(table internal.RawTable) string {
	if table.Sheet != "" {
		return fmt.Sprintf("%s sheet %q", table.Source, table.Sheet)
	}
	return table.Source
}
