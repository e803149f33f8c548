package pipeline

import (
	"fmt"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"fitout/internal"
)

// PDF price lists carry no cell structure, only positioned glyphs. Glyphs
// are grouped into visual rows by Y, merged into cell segments by X gaps,
// and the segment start positions across a page form the column bins.
const (
	pdfRowTolerance = 2.0
	pdfWordGap      = 1.0
	pdfCellGap      = 4.0
	pdfBinTolerance = 5.0
)

type pdfSegment struct {
	x    float64
	text string
}

type pdfLine struct {
	y        float64
	segments []pdfSegment
}

func loadPDF(path string) ([]internal.RawTable, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	out := []internal.RawTable{}
	for pageNo := 1; pageNo <= r.NumPage(); pageNo++ {
		lines := pdfPageLines(r.Page(pageNo))
		if len(lines) < 2 {
			continue
		}
		if table := pdfLinesToTable(path, pageNo, lines); table != nil {
			out = append(out, *table)
		}
	}
	return out, nil
}

// pdfPageLines groups the page glyphs into top-to-bottom lines. Malformed
// pages make the parser panic, so a failed page yields no lines instead of
// killing the whole file.
func pdfPageLines(page pdf.Page) (lines []pdfLine) {
	defer func() {
		if recover() != nil {
			lines = nil
		}
	}()

	if page.V.IsNull() {
		return nil
	}

	type glyphRow struct {
		y      float64
		glyphs []pdf.Text
	}
	rows := []glyphRow{}
	for _, t := range page.Content().Text {
		// keep plain space glyphs, drop control characters
		if t.S != " " && strings.TrimSpace(t.S) == "" {
			continue
		}
		placed := false
		for i := range rows {
			if absFloat(rows[i].y-t.Y) < pdfRowTolerance {
				rows[i].glyphs = append(rows[i].glyphs, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, glyphRow{y: t.Y, glyphs: []pdf.Text{t}})
		}
	}

	// PDF Y grows upward, so the visual top is the largest Y.
	sort.Slice(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	for _, row := range rows {
		sort.Slice(row.glyphs, func(i, j int) bool { return row.glyphs[i].X < row.glyphs[j].X })
		line := pdfLine{y: row.y}
		var b strings.Builder
		segStart := 0.0
		prevEnd := 0.0
		for i, g := range row.glyphs {
			if i == 0 {
				segStart = g.X
			} else {
				gap := g.X - prevEnd
				if gap > pdfCellGap {
					if text := strings.TrimSpace(b.String()); text != "" {
						line.segments = append(line.segments, pdfSegment{x: segStart, text: text})
					}
					b.Reset()
					segStart = g.X
				} else if gap > pdfWordGap {
					b.WriteByte(' ')
				}
			}
			b.WriteString(g.S)
			prevEnd = g.X + g.W
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			line.segments = append(line.segments, pdfSegment{x: segStart, text: text})
		}
		if len(line.segments) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// pdfLinesToTable bins the line segments into a grid and promotes the top
// line to the header. PDF grids never carry the placeholder-label ambiguity
// a workbook sheet can, so the first line is trusted and later header
// detection only acts as a safety net.
func pdfLinesToTable(source string, pageNo int, lines []pdfLine) *internal.RawTable {
	bins := pdfColumnBins(lines)
	if len(bins) < 2 {
		return nil
	}

	grid := make([][]string, len(lines))
	for i, line := range lines {
		cells := make([]string, len(bins))
		for _, seg := range line.segments {
			idx := nearestBin(bins, seg.x)
			if cells[idx] == "" {
				cells[idx] = seg.text
			} else {
				cells[idx] += " " + seg.text
			}
		}
		grid[i] = cells
	}

	table := internal.RawTable{
		Source:  source,
		Format:  internal.FormatPDF,
		Sheet:   fmt.Sprintf("page_%d", pageNo),
		Columns: makeLabels(grid[0]),
	}
	for i, cells := range grid[1:] {
		table.Rows = append(table.Rows, rawRow(table.Columns, cells, i+2))
	}
	return &table
}

func pdfColumnBins(lines []pdfLine) []float64 {
	xs := []float64{}
	for _, line := range lines {
		for _, seg := range line.segments {
			xs = append(xs, seg.x)
		}
	}
	sort.Float64s(xs)

	bins := []float64{}
	for i, x := range xs {
		if i == 0 || x-xs[i-1] > pdfBinTolerance {
			bins = append(bins, x)
		}
	}
	return bins
}

func nearestBin(bins []float64, x float64) int {
	best := 0
	for i := range bins {
		if absFloat(x-bins[i]) < absFloat(x-bins[best]) {
			best = i
		}
	}
	return best
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
