package procure

import (
	"fmt"

	"fitout/internal"
	"fitout/internal/pipeline"
)

// AsCatalog presents a project's procurement list as a pseudo-catalog so the
// matcher can score the needs list against real supplier catalogs.
func AsCatalog(project internal.Project, items []internal.ProcurementItem) internal.SupplierCatalog {
	label := fmt.Sprintf("project:%s", project.Name)
	out := internal.SupplierCatalog{Supplier: label}
	for _, item := range items {
		out.Items = append(out.Items, internal.CatalogItem{
			ID:             item.ID,
			Supplier:       label,
			ItemName:       item.ItemName,
			Unit:           item.Unit,
			Price:          item.BudgetPrice,
			PriceAvailable: item.BudgetPrice != nil,
		})
	}
	return out
}

// RFPLines maps procurement items onto quote-request lines. Budget prices
// surface as target prices; internal notes stay internal.
func RFPLines(items []internal.ProcurementItem) []pipeline.RFPLine {
	lines := make([]pipeline.RFPLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, pipeline.RFPLine{
			ItemName:    item.ItemName,
			Qty:         item.Qty,
			Unit:        item.Unit,
			TargetPrice: item.BudgetPrice,
		})
	}
	return lines
}
