package schematic

import (
	"sort"

	"github.com/tsawler/towerlens/model"
)

const (
	// minLimitConfidence gates which limit blocks may open a layer.
	minLimitConfidence = 0.7
	// maxLimitValue rejects aggregates: no single layer is over $1B.
	maxLimitValue = 1e9
)

// IdentifyLayers segments the sheet into limit bands. Limit blocks in the
// leftmost columns open layers; each layer runs to the row before the next
// differently-valued limit, and the last to the sheet end. A repeated
// identical value continues the current layer (duplicated header rows).
// With no usable limits the whole sheet becomes one synthetic layer.
func IdentifyLayers(blocks []model.ClassifiedBlock, maxRow int) []model.Layer {
	type candidate struct {
		row   int
		value float64
		text  string
	}

	var cands []candidate
	for _, b := range blocks {
		if b.Kind != model.Limit || b.Confidence < minLimitConfidence {
			continue
		}
		if b.StartCol > maxLimitCol {
			continue
		}
		v, ok := limitValue(b)
		if !ok || v > maxLimitValue {
			continue
		}
		cands = append(cands, candidate{row: b.StartRow, value: v, text: limitText(b, v)})
	}

	if len(cands) == 0 {
		return []model.Layer{{
			StartRow:  0,
			EndRow:    maxRow,
			Limit:     "unknown",
			Synthetic: true,
		}}
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].row < cands[j].row })

	// Collapse consecutive candidates with the same value: repeated limit
	// cells extend the band instead of opening a new layer.
	opens := []candidate{cands[0]}
	for _, c := range cands[1:] {
		if c.value == opens[len(opens)-1].value {
			continue
		}
		opens = append(opens, c)
	}

	layers := make([]model.Layer, 0, len(opens))
	for i, c := range opens {
		end := maxRow
		if i+1 < len(opens) {
			end = opens[i+1].row - 1
		}
		layers = append(layers, model.Layer{
			StartRow:   c.row,
			EndRow:     end,
			Limit:      c.text,
			LimitValue: c.value,
		})
	}

	attachDescriptions(layers, blocks)
	return layers
}

func limitValue(b model.ClassifiedBlock) (float64, bool) {
	if b.HasNumber {
		return b.Number, true
	}
	return model.ParseMoney(b.Text)
}

// limitText prefers the sheet's own notation and falls back to compact
// formatting for bare numbers.
func limitText(b model.ClassifiedBlock, v float64) string {
	if !b.HasNumber && b.Text != "" {
		return b.Text
	}
	return model.FormatLimit(v)
}

// attachDescriptions copies excess notation found inside each band onto
// the layer. The leftmost, topmost description wins.
func attachDescriptions(layers []model.Layer, blocks []model.ClassifiedBlock) {
	for i := range layers {
		for _, b := range blocks {
			if b.Kind != model.Description {
				continue
			}
			if b.StartRow < layers[i].StartRow || b.StartRow > layers[i].EndRow {
				continue
			}
			layers[i].Description = b.Text
			break
		}
	}
}
