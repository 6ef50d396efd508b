package schematic

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/towerlens/model"
	"github.com/tsawler/towerlens/xlsx"
)

// Relation describes the geometry of an adjacency edge.
type Relation int

const (
	// SameRow means the two blocks' row ranges overlap.
	SameRow Relation = iota
	// SameColumn means the column ranges overlap but rows do not.
	SameColumn
	// NearestBelow means the data block sits below the carrier with no
	// shared row or column.
	NearestBelow
	// NearestRight means the data block sits to the carrier's right.
	NearestRight
)

func (r Relation) String() string {
	switch r {
	case SameRow:
		return "same-row"
	case SameColumn:
		return "same-column"
	case NearestBelow:
		return "nearest-below"
	case NearestRight:
		return "nearest-right"
	default:
		return "unknown"
	}
}

// Edge links a data block to its nearest carrier block. Source and Target
// index into the classified block slice the graph was built from.
type Edge struct {
	Source   int // data block (currency, percentage, terms, policy)
	Target   int // carrier block
	Relation Relation
	Distance int // Manhattan distance between origins
}

// Graph holds the adjacency edges of one sheet. Each data block appears in
// at most one edge, so a value can never be claimed by two carriers.
type Graph struct {
	Edges []Edge

	byCarrier map[int][]Edge
}

// BuildGraph links every currency, percentage, terms and policy-number
// block to its nearest carrier. Row alignment wins outright; otherwise
// minimal Manhattan distance, with the smaller column delta breaking ties.
func BuildGraph(blocks []model.ClassifiedBlock) *Graph {
	g := &Graph{byCarrier: make(map[int][]Edge)}

	carriers := make([]int, 0, 8)
	for i, b := range blocks {
		if b.Kind == model.Carrier {
			carriers = append(carriers, i)
		}
	}
	if len(carriers) == 0 {
		return g
	}

	for i, b := range blocks {
		switch b.Kind {
		case model.Currency, model.Percentage, model.Terms, model.PolicyNumber:
		default:
			continue
		}

		best, bestKey := -1, [3]int{}
		for _, ci := range carriers {
			key := proximityKey(blocks[ci].Block, b.Block)
			if best == -1 || lessKey(key, bestKey) {
				best, bestKey = ci, key
			}
		}

		e := Edge{
			Source:   i,
			Target:   best,
			Relation: relate(blocks[best].Block, b.Block),
			Distance: manhattan(blocks[best].Block, b.Block),
		}
		g.Edges = append(g.Edges, e)
		g.byCarrier[best] = append(g.byCarrier[best], e)
	}

	for _, edges := range g.byCarrier {
		sort.SliceStable(edges, func(i, j int) bool {
			return edges[i].Distance < edges[j].Distance
		})
	}

	return g
}

// Assigned returns the edges whose target is the given carrier block index,
// nearest first.
func (g *Graph) Assigned(carrier int) []Edge {
	return g.byCarrier[carrier]
}

// proximityKey orders candidate carriers for a data block: row-aligned
// carriers first, then Manhattan distance, then column delta.
func proximityKey(carrier, data model.Block) [3]int {
	aligned := 1
	if rowsOverlap(carrier, data) {
		aligned = 0
	}
	return [3]int{aligned, manhattan(carrier, data), absInt(carrier.StartCol - data.StartCol)}
}

func lessKey(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func relate(carrier, data model.Block) Relation {
	switch {
	case rowsOverlap(carrier, data):
		return SameRow
	case colsOverlap(carrier, data):
		return SameColumn
	case data.StartRow > carrier.EndRow:
		return NearestBelow
	default:
		return NearestRight
	}
}

func rowsOverlap(a, b model.Block) bool {
	return a.StartRow <= b.EndRow && b.StartRow <= a.EndRow
}

func colsOverlap(a, b model.Block) bool {
	return a.StartCol <= b.EndCol && b.StartCol <= a.EndCol
}

func manhattan(a, b model.Block) int {
	return axisGap(a.StartRow, a.EndRow, b.StartRow, b.EndRow) +
		axisGap(a.StartCol, a.EndCol, b.StartCol, b.EndCol)
}

// axisGap is the gap between two ranges on one axis, 0 when they overlap.
func axisGap(aStart, aEnd, bStart, bEnd int) int {
	if aStart > bEnd {
		return aStart - bEnd
	}
	if bStart > aEnd {
		return bStart - aEnd
	}
	return 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Summary-column detection. Columns holding layer-level roll-ups (bound
// premium, layer rate, targets) must not be read as carrier data.

// SummaryConfidence grades how sure the detector is about a column.
type SummaryConfidence int

const (
	// Definite columns are excluded from carrier assembly.
	Definite SummaryConfidence = iota
	// Possible columns are recorded but still assembled; asserting them
	// on a duplicate-value hunch alone loses real data.
	Possible
)

// SummaryColumns records which columns carry layer-level totals rather
// than per-carrier values.
type SummaryColumns struct {
	Columns map[int]SummaryConfidence

	// Typed summary columns, -1 when absent.
	BoundPremiumCol int
	RateCol         int
	TargetCol       int
}

// Excluded reports whether carrier assembly must skip the column.
func (s SummaryColumns) Excluded(col int) bool {
	conf, ok := s.Columns[col]
	return ok && conf == Definite
}

const (
	summaryHeaderRows = 10 // header vocabulary is searched in the top rows
	summaryHeaderCols = 30
)

var yearPremiumRe = regexp.MustCompile(`(?i)^(19|20)\d{2}\s+(layer\s+)?premium`)

// summaryVocab maps header text fragments to the summary column they mark.
var summaryVocab = []struct {
	fragment string
	slot     int // 0 bound premium, 1 rate, 2 target, -1 untyped
}{
	{"bound premium", 0},
	{"total premium", 0},
	{"annualized", 0},
	{"layer premium", 0},
	{"layer rate", 1},
	{"rate on line", 1},
	{"layer target", 2},
	{"target premium", 2},
	{"aggregate", -1},
	{"100% premium", -1},
}

// adjacentVocab extends a summary region sideways: fees, taxes and totals
// cluster next to the premium roll-up.
var adjacentVocab = []string{"fee", "fees", "tax", "taxes", "total", "surcharge", "commission"}

// DetectSummaryColumns finds layer-level roll-up columns from header
// vocabulary in the top rows, plus a duplicate-value heuristic for
// unlabeled columns.
func DetectSummaryColumns(sheet *xlsx.Sheet, blocks []model.ClassifiedBlock) SummaryColumns {
	sc := SummaryColumns{
		Columns:         make(map[int]SummaryConfidence),
		BoundPremiumCol: -1,
		RateCol:         -1,
		TargetCol:       -1,
	}

	maxRow := min(summaryHeaderRows, len(sheet.Rows))
	for row := 0; row < maxRow; row++ {
		maxCol := min(summaryHeaderCols, len(sheet.Rows[row]))
		for col := 0; col < maxCol; col++ {
			text := strings.ToLower(strings.TrimSpace(sheet.Rows[row][col].Value))
			if text == "" {
				continue
			}
			slot, hit := matchSummaryHeader(text)
			if !hit {
				continue
			}
			sc.Columns[col] = Definite
			switch slot {
			case 0:
				if sc.BoundPremiumCol == -1 {
					sc.BoundPremiumCol = col
				}
			case 1:
				if sc.RateCol == -1 {
					sc.RateCol = col
				}
			case 2:
				if sc.TargetCol == -1 {
					sc.TargetCol = col
				}
			}
			// Pull in adjacent fee/tax/total columns on the same row.
			for _, adj := range []int{col - 1, col + 1} {
				if adj < 0 || adj >= maxCol {
					continue
				}
				next := strings.ToLower(strings.TrimSpace(sheet.Rows[row][adj].Value))
				for _, v := range adjacentVocab {
					if strings.Contains(next, v) {
						sc.Columns[adj] = Definite
					}
				}
			}
		}
	}

	markDuplicateValueColumns(&sc, blocks)
	return sc
}

func matchSummaryHeader(text string) (int, bool) {
	if yearPremiumRe.MatchString(text) {
		return 0, true
	}
	for _, v := range summaryVocab {
		if strings.Contains(text, v.fragment) {
			return v.slot, true
		}
	}
	return 0, false
}

// markDuplicateValueColumns flags columns whose currency values recur in
// other columns of the same rows: the same number at carrier grain and
// layer grain means one of the columns is a roll-up. The evidence is
// circumstantial, so these columns are only marked Possible.
func markDuplicateValueColumns(sc *SummaryColumns, blocks []model.ClassifiedBlock) {
	type cur struct {
		col   int
		row   int
		value float64
	}
	var values []cur
	for _, b := range blocks {
		if b.Kind == model.Currency && b.HasNumber {
			values = append(values, cur{b.StartCol, b.StartRow, b.Number})
		}
	}

	dupes := make(map[int]int) // col -> duplicated value count
	for i, a := range values {
		for j, b := range values {
			if i == j || a.col == b.col || a.value != b.value {
				continue
			}
			dupes[a.col]++
			break
		}
	}

	byCol := make(map[int]int)
	for _, v := range values {
		byCol[v.col]++
	}
	for col, n := range dupes {
		if _, known := sc.Columns[col]; known {
			continue
		}
		// Most of the column duplicating values elsewhere is suspicious.
		if n >= 2 && n*2 >= byCol[col] {
			sc.Columns[col] = Possible
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
