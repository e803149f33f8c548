package pipeline

import (
	"fitout/internal"
)

// BuildComparison lays matched groups out as one row per base item with a
// column per supplier. The base supplier comes first; the rest keep the
// order their catalogs were supplied in, whether or not they matched
// anything.
func BuildComparison(base internal.SupplierCatalog, others []internal.SupplierCatalog, groups []internal.MatchGroup) internal.ComparisonTable {
	table := internal.ComparisonTable{Suppliers: []string{base.Supplier}}
	for _, other := range others {
		if other.Supplier == base.Supplier {
			continue
		}
		table.Suppliers = append(table.Suppliers, other.Supplier)
	}

	for _, group := range groups {
		row := internal.ComparisonRow{
			BaseItem: group.Base,
			Cells:    map[string]internal.ComparisonCell{base.Supplier: cellFromItem(group.Base, 1.0)},
		}
		for supplier, scored := range group.Matches {
			row.Cells[supplier] = cellFromItem(scored.Item, scored.Score)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func cellFromItem(item internal.CatalogItem, score float64) internal.ComparisonCell {
	return internal.ComparisonCell{
		ItemName:  item.ItemName,
		Unit:      item.Unit,
		Price:     item.Price,
		Currency:  item.Currency,
		Available: item.PriceAvailable,
		Score:     score,
	}
}
