package model

import (
	"fmt"
	"strings"
)

// Block is a contiguous rectangular region of a worksheet that carries a
// single value: either a merged-cell region or a non-empty singleton cell.
// Coordinates are 0-indexed and inclusive.
type Block struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int

	Text      string  // display text, trimmed
	Number    float64 // numeric value when the cell was numeric
	HasNumber bool
	Fill      string // hex RGB fill color, "" when the cell has no fill
	Merged    bool
}

// RowSpan returns the number of rows the block covers.
func (b Block) RowSpan() int {
	return b.EndRow - b.StartRow + 1
}

// ColSpan returns the number of columns the block covers.
func (b Block) ColSpan() int {
	return b.EndCol - b.StartCol + 1
}

// Ref returns the A1-style reference of the block's origin cell.
func (b Block) Ref() string {
	return cellRef(b.StartCol, b.StartRow)
}

// RangeRef returns the block's reference in A1 notation: a single cell
// reference for 1x1 blocks, "A1:B2" form otherwise.
func (b Block) RangeRef() string {
	if b.StartRow == b.EndRow && b.StartCol == b.EndCol {
		return b.Ref()
	}
	return fmt.Sprintf("%s:%s", cellRef(b.StartCol, b.StartRow), cellRef(b.EndCol, b.EndRow))
}

// Contains reports whether the given cell lies inside the block.
func (b Block) Contains(row, col int) bool {
	return row >= b.StartRow && row <= b.EndRow && col >= b.StartCol && col <= b.EndCol
}

// Overlaps reports whether two blocks share any cell.
func (b Block) Overlaps(o Block) bool {
	return b.StartRow <= o.EndRow && o.StartRow <= b.EndRow &&
		b.StartCol <= o.EndCol && o.StartCol <= b.EndCol
}

// Covers reports whether b fully contains o.
func (b Block) Covers(o Block) bool {
	return b.StartRow <= o.StartRow && b.EndRow >= o.EndRow &&
		b.StartCol <= o.StartCol && b.EndCol >= o.EndCol
}

// Kind classifies what a block's content represents.
type Kind int

const (
	// Unclassified is content no rule recognized.
	Unclassified Kind = iota
	// Carrier is an insurance carrier name.
	Carrier
	// Currency is a monetary amount (premium, fee, target).
	Currency
	// Percentage is a participation share.
	Percentage
	// Limit is a layer limit like "$50M" or a large round number in the
	// limit columns.
	Limit
	// Terms is coverage terms or exclusion text.
	Terms
	// PolicyNumber is a policy or binder identifier.
	PolicyNumber
	// Label is a structural header ("Carrier", "Premium", "Layer", ...).
	Label
	// Description is excess notation such as "$25M xs $25M".
	Description
)

var kindNames = map[Kind]string{
	Unclassified: "unclassified",
	Carrier:      "carrier",
	Currency:     "currency",
	Percentage:   "percentage",
	Limit:        "limit",
	Terms:        "terms",
	PolicyNumber: "policy_number",
	Label:        "label",
	Description:  "description",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ClassifiedBlock is a Block with its inferred kind and the confidence of
// that inference. Classification is a prior: later pipeline stages may
// reinterpret low-confidence kinds from spatial context.
type ClassifiedBlock struct {
	Block
	Kind       Kind
	Confidence float64
}

// Flatten returns the block as a flat map, suitable for serialization.
func (c ClassifiedBlock) Flatten() map[string]any {
	m := map[string]any{
		"ref":        c.RangeRef(),
		"text":       c.Text,
		"kind":       c.Kind.String(),
		"confidence": c.Confidence,
	}
	if c.HasNumber {
		m["number"] = c.Number
	}
	if c.Fill != "" {
		m["fill"] = c.Fill
	}
	return m
}

// cellRef renders a 0-indexed (col, row) pair as an A1-style reference.
func cellRef(col, row int) string {
	var sb strings.Builder
	col++
	for col > 0 {
		col--
		sb.WriteByte(byte('A' + col%26))
		col /= 26
	}
	// column letters accumulate least-significant first
	s := []byte(sb.String())
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return fmt.Sprintf("%s%d", s, row+1)
}
