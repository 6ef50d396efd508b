package schematic

import (
	"strconv"
	"strings"
	"testing"

	"github.com/tsawler/towerlens/xlsx"
)

// sheetBuilder assembles an in-memory worksheet for pipeline tests.
type sheetBuilder struct {
	t     *testing.T
	sheet *xlsx.Sheet
}

func newSheet(t *testing.T, rows, cols int) *sheetBuilder {
	t.Helper()
	s := &xlsx.Sheet{
		Name:   "Placement",
		MaxRow: rows - 1,
		MaxCol: cols - 1,
		Rows:   make([][]xlsx.Cell, rows),
	}
	for r := range s.Rows {
		s.Rows[r] = make([]xlsx.Cell, cols)
		for c := range s.Rows[r] {
			s.Rows[r][c] = xlsx.Cell{Row: r, Col: c, Type: xlsx.CellTypeEmpty, MergeRows: 1, MergeCols: 1}
		}
	}
	return &sheetBuilder{t: t, sheet: s}
}

// set writes a value at an A1 reference. Values that parse as numbers get
// the numeric cell type, everything else is a string.
func (b *sheetBuilder) set(ref, value string) *sheetBuilder {
	b.t.Helper()
	col, row, err := xlsx.ParseCellRef(ref)
	if err != nil {
		b.t.Fatalf("bad ref %q: %v", ref, err)
	}
	cell := &b.sheet.Rows[row][col]
	cell.Value = value
	cell.Type = xlsx.CellTypeString
	if n, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64); err == nil {
		cell.Type = xlsx.CellTypeNumber
		cell.Number = n
		cell.HasNumber = true
	}
	return b
}

func (b *sheetBuilder) fill(ref, color string) *sheetBuilder {
	b.t.Helper()
	col, row, err := xlsx.ParseCellRef(ref)
	if err != nil {
		b.t.Fatalf("bad ref %q: %v", ref, err)
	}
	b.sheet.Rows[row][col].Fill = color
	return b
}

// merge declares a merged region and stamps the member cells the way the
// reader does.
func (b *sheetBuilder) merge(rangeRef string) *sheetBuilder {
	b.t.Helper()
	startCol, startRow, endCol, endRow, err := xlsx.ParseRangeRef(rangeRef)
	if err != nil {
		b.t.Fatalf("bad range %q: %v", rangeRef, err)
	}
	b.sheet.MergedRegions = append(b.sheet.MergedRegions, xlsx.MergedRegion{
		StartRow: startRow, StartCol: startCol, EndRow: endRow, EndCol: endCol,
	})
	for r := startRow; r <= endRow; r++ {
		for c := startCol; c <= endCol; c++ {
			cell := &b.sheet.Rows[r][c]
			cell.IsMerged = true
			if r == startRow && c == startCol {
				cell.IsMergeRoot = true
				cell.MergeRows = endRow - startRow + 1
				cell.MergeCols = endCol - startCol + 1
			}
		}
	}
	return b
}

func (b *sheetBuilder) build() *xlsx.Sheet {
	return b.sheet
}

// towerSheet builds the canonical two-layer test schematic:
//
//	     A        B               C      D        E          F
//	1  Layer    Carrier          Share  Premium  Terms      Bound Premium
//	2  $50M     Chubb            0.6    240000   excl flood 410000
//	3           AIG              0.4    160000
//	4  $25M     Zurich           1      500000
func towerSheet(t *testing.T) *xlsx.Sheet {
	t.Helper()
	return newSheet(t, 4, 6).
		set("A1", "Layer").set("B1", "Carrier").set("C1", "Share").
		set("D1", "Premium").set("E1", "Terms").set("F1", "Bound Premium").
		set("A2", "$50M").set("B2", "Chubb").set("C2", "0.6").
		set("D2", "240000").set("E2", "excl. flood").set("F2", "410000").
		set("B3", "AIG").set("C3", "0.4").set("D3", "160000").
		set("A4", "$25M").set("B4", "Zurich").set("C4", "1").set("D4", "500000").
		build()
}
