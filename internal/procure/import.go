package procure

import (
	"fmt"
	"strings"

	"fitout/internal"
	"fitout/internal/pipeline"
	"fitout/internal/storage"
	"fitout/internal/util"
)

var (
	qtyKeywords        = []string{"qty", "quantity", "nos", "count", "pcs"}
	departmentKeywords = []string{"department", "dept", "area", "zone", "floor"}
	categoryKeywords   = []string{"category", "group", "section", "discipline"}
)

// Importer turns a procurement worksheet into tracked project items. It
// rides the catalog loader and classifier; the columns a catalog does not
// have (quantity, department, category) get their own lookup here.
type Importer struct {
	db   *storage.DB
	prof pipeline.Profile
}

func NewImporter(db *storage.DB, prof pipeline.Profile) *Importer {
	return &Importer{db: db, prof: prof}
}

type ImportStats struct {
	Imported int
	Skipped  []internal.SkippedRow
}

func (im *Importer) ImportFile(projectID, path string) (ImportStats, error) {
	project, err := im.db.GetProject(projectID)
	if err != nil {
		return ImportStats{}, err
	}
	if project == nil {
		return ImportStats{}, fmt.Errorf("project not found: %s", projectID)
	}

	tables, err := pipeline.LoadFile(path)
	if err != nil {
		return ImportStats{}, err
	}

	stats := ImportStats{}
	var batch []internal.ProcurementItem
	for _, table := range tables {
		if len(table.Rows) == 0 {
			continue
		}
		normalized := pipeline.NormalizeTable(table, im.prof)
		roles := pipeline.ClassifyColumns(normalized.Columns, im.prof)
		items, skipped := im.itemsFromTable(normalized, roles, projectID)
		batch = append(batch, items...)
		stats.Skipped = append(stats.Skipped, skipped...)
	}
	if len(batch) == 0 {
		return stats, fmt.Errorf("no procurement rows recognized in %s", path)
	}

	if err := im.db.InsertProcurementItems(batch); err != nil {
		return stats, err
	}
	stats.Imported = len(batch)
	return stats, nil
}

func (im *Importer) itemsFromTable(table internal.RawTable, roles map[internal.ColumnRole]string, projectID string) ([]internal.ProcurementItem, []internal.SkippedRow) {
	itemCol, ok := roles[internal.RoleItem]
	if !ok {
		label := table.Sheet
		if label == "" {
			label = table.Source
		}
		return nil, []internal.SkippedRow{{Reason: fmt.Sprintf("%s: no item column recognized", label)}}
	}

	claimed := map[string]bool{}
	for _, col := range roles {
		claimed[col] = true
	}
	qtyCol := findColumn(table.Columns, claimed, qtyKeywords)
	claimed[qtyCol] = true
	deptCol := findColumn(table.Columns, claimed, departmentKeywords)
	claimed[deptCol] = true
	catCol := findColumn(table.Columns, claimed, categoryKeywords)

	unitCol := roles[internal.RoleUnit]
	priceCol := roles[internal.RolePrice]
	notesCol := roles[internal.RoleDescription]

	var items []internal.ProcurementItem
	var skipped []internal.SkippedRow
	for _, row := range table.Rows {
		name := util.NormalizeSpaces(util.CleanCell(row.Cells[itemCol]))
		if name == "" {
			skipped = append(skipped, internal.SkippedRow{SourceRow: row.SourceRow, Reason: "empty item name"})
			continue
		}

		item := internal.ProcurementItem{
			ProjectID:  projectID,
			Department: util.NormalizeSpaces(util.CleanCell(row.Cells[deptCol])),
			Category:   util.NormalizeSpaces(util.CleanCell(row.Cells[catCol])),
			ItemName:   name,
			Unit:       util.NormalizeSpaces(util.CleanCell(row.Cells[unitCol])),
			Status:     internal.ProcPlanned,
			Notes:      util.NormalizeSpaces(util.CleanCell(row.Cells[notesCol])),
		}
		if qtyCol != "" {
			parsed := util.ParseQty(util.CleanCell(row.Cells[qtyCol]))
			item.Qty = parsed.Qty
			if item.Unit == "" && parsed.Unit != nil {
				item.Unit = *parsed.Unit
			}
		}
		if priceCol != "" {
			item.BudgetPrice = util.ParsePrice(util.CleanCell(row.Cells[priceCol]))
		}
		items = append(items, item)
	}
	return items, skipped
}

// findColumn returns the first unclaimed column whose label mentions one of
// the keywords, matching the classifier's first-wins rule.
func findColumn(columns []string, claimed map[string]bool, keywords []string) string {
	for _, col := range columns {
		if claimed[col] || strings.HasPrefix(col, "_") {
			continue
		}
		lower := strings.ToLower(col)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return col
			}
		}
	}
	return ""
}
