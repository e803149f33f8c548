package pipeline

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fitout/internal"
	"fitout/internal/util"
)

// ParseHTMLTables extracts <table> elements from a mail body as raw grids
// under placeholder labels, so they run through the same header detection
// and classification as any file upload.
func ParseHTMLTables(html, source string) []internal.RawTable {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	out := []internal.RawTable{}
	tableNo := 0
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		rows := sel.Find("tr")
		if rows.Length() < 2 {
			return
		}
		tableNo++

		grid := [][]string{}
		width := 0
		rows.Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if len(cells) > width {
				width = len(cells)
			}
			grid = append(grid, cells)
		})
		if width == 0 {
			return
		}

		table := internal.RawTable{
			Source:  source,
			Format:  internal.FormatHTML,
			Sheet:   fmt.Sprintf("table_%d", tableNo),
			Columns: placeholderLabels(width),
		}
		for i, cells := range grid {
			if emptyRow(cells) {
				continue
			}
			table.Rows = append(table.Rows, rawRow(table.Columns, cells, i+1))
		}
		if len(table.Rows) > 0 {
			out = append(out, table)
		}
	})
	return out
}
