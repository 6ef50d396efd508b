// Package schematic infers tower structure from a worksheet's cell grid.
//
// The pipeline runs in stages: FindBlocks collapses the grid into value
// blocks, a Classifier assigns each block a kind, BuildGraph links data
// blocks to their nearest carriers, IdentifyLayers segments the sheet into
// limit bands, and Assemble produces carrier entries. Preflight scores a
// classified sheet without assembling anything.
package schematic

import (
	"sort"
	"strings"

	"github.com/tsawler/towerlens/model"
	"github.com/tsawler/towerlens/xlsx"
)

// FindBlocks collapses a sheet into value blocks, ordered row-major by
// origin. Merged regions become one block carrying the root cell's value;
// nested or overlapping merges collapse to the outermost region. Blank
// singleton cells are dropped unless they carry a non-default fill.
func FindBlocks(sheet *xlsx.Sheet) []model.Block {
	regions := outermostRegions(sheet.MergedRegions)

	covered := make(map[[2]int]bool)
	blocks := make([]model.Block, 0, 64)

	for _, mr := range regions {
		b := model.Block{
			StartRow: mr.StartRow,
			StartCol: mr.StartCol,
			EndRow:   mr.EndRow,
			EndCol:   mr.EndCol,
			Merged:   true,
		}
		if cell := sheet.Cell(mr.StartRow, mr.StartCol); cell != nil {
			b.Text = strings.TrimSpace(cell.Value)
			b.Fill = cell.Fill
			if cell.HasNumber {
				b.Number = cell.Number
				b.HasNumber = true
			}
		}
		for row := mr.StartRow; row <= mr.EndRow; row++ {
			for col := mr.StartCol; col <= mr.EndCol; col++ {
				covered[[2]int{row, col}] = true
			}
		}
		if b.Text == "" && !b.HasNumber && b.Fill == "" {
			continue
		}
		blocks = append(blocks, b)
	}

	for rowIdx, row := range sheet.Rows {
		for colIdx := range row {
			if covered[[2]int{rowIdx, colIdx}] {
				continue
			}
			cell := &sheet.Rows[rowIdx][colIdx]
			text := strings.TrimSpace(cell.Value)
			if text == "" && cell.Fill == "" {
				continue
			}
			b := model.Block{
				StartRow: rowIdx,
				StartCol: colIdx,
				EndRow:   rowIdx,
				EndCol:   colIdx,
				Text:     text,
				Fill:     cell.Fill,
			}
			if cell.HasNumber {
				b.Number = cell.Number
				b.HasNumber = true
			}
			blocks = append(blocks, b)
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].StartRow != blocks[j].StartRow {
			return blocks[i].StartRow < blocks[j].StartRow
		}
		return blocks[i].StartCol < blocks[j].StartCol
	})

	return blocks
}

// outermostRegions drops merged regions fully contained in another region.
// Workbooks produced by copy-paste sometimes carry such nested merges.
func outermostRegions(regions []xlsx.MergedRegion) []xlsx.MergedRegion {
	keep := make([]xlsx.MergedRegion, 0, len(regions))
	for i, r := range regions {
		contained := false
		for j, o := range regions {
			if i == j {
				continue
			}
			if covers(o, r) && !(covers(r, o) && i < j) {
				contained = true
				break
			}
		}
		if !contained {
			keep = append(keep, r)
		}
	}
	return keep
}

func covers(a, b xlsx.MergedRegion) bool {
	return a.StartRow <= b.StartRow && a.EndRow >= b.EndRow &&
		a.StartCol <= b.StartCol && a.EndCol >= b.EndCol
}
