package model

// Layer is a horizontal band of the schematic belonging to one limit in the
// tower. Layers are reported in document order (top of the sheet first) and
// their row ranges never overlap.
type Layer struct {
	StartRow int
	EndRow   int

	// Limit is the display form of the layer limit, e.g. "$50M". When no
	// limit blocks exist on the sheet a single synthetic layer with Limit
	// "unknown" spans the whole sheet.
	Limit       string
	LimitValue  float64
	Description string
	Synthetic   bool
}

// ContainsRow reports whether the given row falls inside the layer's band.
func (l Layer) ContainsRow(row int) bool {
	return row >= l.StartRow && row <= l.EndRow
}

// Flatten returns the layer as a flat map.
func (l Layer) Flatten() map[string]any {
	return map[string]any{
		"start_row":   l.StartRow,
		"end_row":     l.EndRow,
		"limit":       l.Limit,
		"limit_value": l.LimitValue,
		"description": l.Description,
		"synthetic":   l.Synthetic,
	}
}
