package schematic

import (
	"sort"
	"strings"

	"github.com/tsawler/towerlens/model"
	"github.com/tsawler/towerlens/registry"
	"github.com/tsawler/towerlens/xlsx"
)

// minCarrierConfidence gates which carrier blocks produce entries.
const minCarrierConfidence = 0.5

// Assembler turns classified blocks, layers and the adjacency graph into
// carrier entries and per-layer summaries.
type Assembler struct {
	reg *registry.Registry
}

// NewAssembler builds an Assembler. A nil registry falls back to the
// embedded default lexicon.
func NewAssembler(reg *registry.Registry) *Assembler {
	if reg == nil {
		reg = registry.Default()
	}
	return &Assembler{reg: reg}
}

// Assemble walks the layers top to bottom and, within each band, the
// carrier blocks row-major. Entries therefore come out in document order.
func (a *Assembler) Assemble(
	sheet *xlsx.Sheet,
	blocks []model.ClassifiedBlock,
	layers []model.Layer,
	graph *Graph,
	sums SummaryColumns,
) ([]model.CarrierEntry, []model.LayerSummary) {
	var entries []model.CarrierEntry
	summaries := make([]model.LayerSummary, 0, len(layers))

	for li, layer := range layers {
		carrierIdxs := carriersInBand(blocks, layer, sums)

		var layerEntries []model.CarrierEntry
		for _, ci := range carrierIdxs {
			layerEntries = append(layerEntries, a.entriesForCarrier(blocks, ci, layer, graph, sums)...)
		}
		for i := range layerEntries {
			layerEntries[i].LayerIndex = li
		}
		s := a.summarize(sheet, layer, layerEntries, sums)
		s.LayerIndex = li
		entries = append(entries, layerEntries...)
		summaries = append(summaries, s)
	}

	return entries, summaries
}

// carriersInBand returns carrier block indices inside the layer's rows,
// ordered row-major, skipping summary columns.
func carriersInBand(blocks []model.ClassifiedBlock, layer model.Layer, sums SummaryColumns) []int {
	var idxs []int
	for i, b := range blocks {
		if b.Kind != model.Carrier || b.Confidence < minCarrierConfidence {
			continue
		}
		if b.StartRow < layer.StartRow || b.StartRow > layer.EndRow {
			continue
		}
		if sums.Excluded(b.StartCol) {
			continue
		}
		idxs = append(idxs, i)
	}
	sort.SliceStable(idxs, func(x, y int) bool {
		bx, by := blocks[idxs[x]], blocks[idxs[y]]
		if bx.StartRow != by.StartRow {
			return bx.StartRow < by.StartRow
		}
		return bx.StartCol < by.StartCol
	})
	return idxs
}

// entriesForCarrier builds the entries for one carrier block. A multi-line
// cell yields one entry per line, all sharing the cell's reference; data
// blocks are dealt to the lines in order.
func (a *Assembler) entriesForCarrier(
	blocks []model.ClassifiedBlock,
	ci int,
	layer model.Layer,
	graph *Graph,
	sums SummaryColumns,
) []model.CarrierEntry {
	cb := blocks[ci]
	lines := carrierLines(cb.Text)
	if len(lines) == 0 {
		return nil
	}

	// Partition the assigned data blocks by kind, preserving the graph's
	// nearest-first order and skipping summary columns.
	var pcts, monies []model.ClassifiedBlock
	var terms, policies []string
	for _, e := range graph.Assigned(ci) {
		db := blocks[e.Source]
		if sums.Excluded(db.StartCol) {
			continue
		}
		if db.StartRow < layer.StartRow || db.StartRow > layer.EndRow {
			continue
		}
		switch db.Kind {
		case model.Percentage:
			pcts = append(pcts, db)
		case model.Currency:
			monies = append(monies, db)
		case model.Terms:
			terms = append(terms, db.Text)
		case model.PolicyNumber:
			policies = append(policies, db.Text)
		}
	}

	out := make([]model.CarrierEntry, 0, len(lines))
	for li, line := range lines {
		entry := model.CarrierEntry{
			Carrier:          line,
			LayerLimit:       layer.Limit,
			LayerDescription: layer.Description,
			Ref:              cb.RangeRef(),
			RowSpan:          cb.RowSpan(),
			ColSpan:          cb.ColSpan(),
			FillColor:        cb.Fill,
		}
		if canonical, ok := a.reg.Resolve(line); ok {
			entry.CanonicalName = canonical
		}

		if li < len(pcts) {
			entry.ParticipationPct = normalizePct(pcts[li])
		}
		if li < len(monies) {
			entry.Premium = model.Float(monetaryValue(monies[li]))
			// A second amount in a different column is the carrier's
			// share of the layer premium.
			if next := li + len(lines); next < len(monies) && monies[next].StartCol != monies[li].StartCol {
				entry.PremiumShare = model.Float(monetaryValue(monies[next]))
			}
		}
		if li == 0 {
			if len(terms) > 0 {
				entry.Terms = terms[0]
			}
			if len(policies) > 0 {
				entry.PolicyNumber = policies[0]
			}
		}

		// Excess notation in the carrier cell or the layer description
		// yields the attachment point.
		if _, att, ok := model.ParseExcess(cb.Text); ok {
			entry.AttachmentPoint = model.Float(att)
		} else if _, att, ok := model.ParseExcess(layer.Description); ok {
			entry.AttachmentPoint = model.Float(att)
		}

		out = append(out, entry)
	}
	return out
}

// carrierLines splits a multi-line carrier cell into individual names,
// dropping blanks and structural leftovers.
func carrierLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// normalizePct maps a percentage block to [0,1]. Whole-number percentages
// divide by 100; fractions pass through.
func normalizePct(b model.ClassifiedBlock) *float64 {
	var v float64
	switch {
	case b.HasNumber:
		v = b.Number
	default:
		s := strings.TrimSuffix(strings.TrimSpace(b.Text), "%")
		m, ok := model.ParseMoney(s)
		if !ok {
			return nil
		}
		v = m
	}
	if v > 1 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return nil
	}
	return model.Float(v)
}

func monetaryValue(b model.ClassifiedBlock) float64 {
	if b.HasNumber {
		return b.Number
	}
	v, _ := model.ParseMoney(b.Text)
	return v
}

// summarize pairs the computed entry totals with whatever the sheet's
// summary columns declare for the layer. Declared and computed values stay
// separate; reconciliation compares them later.
func (a *Assembler) summarize(
	sheet *xlsx.Sheet,
	layer model.Layer,
	entries []model.CarrierEntry,
	sums SummaryColumns,
) model.LayerSummary {
	s := model.LayerSummary{LayerLimit: layer.Limit}

	var pctSum, premSum float64
	var havePct, havePrem bool
	for _, e := range entries {
		if e.ParticipationPct != nil {
			pctSum += *e.ParticipationPct
			havePct = true
		}
		if e.Premium != nil {
			premSum += *e.Premium
			havePrem = true
		}
	}
	if havePct {
		s.Participation = model.Float(pctSum)
	}
	if havePrem {
		s.Premium = model.Float(premSum)
	}

	if v, ref, ok := declaredValue(sheet, layer, sums.BoundPremiumCol); ok {
		s.DeclaredPremium = model.Float(v)
		s.Ref = ref
	}
	if v, _, ok := declaredValue(sheet, layer, sums.RateCol); ok {
		s.DeclaredRate = model.Float(v)
	}
	if v, _, ok := declaredValue(sheet, layer, sums.TargetCol); ok {
		s.DeclaredTarget = model.Float(v)
	}

	return s
}

// declaredValue finds the first positive number in the given column within
// the layer's rows.
func declaredValue(sheet *xlsx.Sheet, layer model.Layer, col int) (float64, string, bool) {
	if col < 0 {
		return 0, "", false
	}
	for row := layer.StartRow; row <= layer.EndRow; row++ {
		cell := sheet.Cell(row, col)
		if cell == nil {
			continue
		}
		if cell.HasNumber && cell.Number > 0 {
			return cell.Number, xlsx.CellRef(col, row), true
		}
		if v, ok := model.ParseMoney(cell.Value); ok && v > 0 {
			return v, xlsx.CellRef(col, row), true
		}
	}
	return 0, "", false
}
