package model

// PreflightResult reports whether a sheet looks extractable, before any
// assembly is attempted. Issues describe what is missing; each issue has a
// matching entry in Suggestions.
type PreflightResult struct {
	FileName  string
	SheetName string

	CanExtract bool
	Confidence float64

	LayersFound    int
	CarriersFound  int
	HasPercentages bool
	HasCurrency    bool
	HasTerms       bool

	Issues      []string
	Suggestions []string
}

// Flatten returns the result as a flat map.
func (p PreflightResult) Flatten() map[string]any {
	return map[string]any{
		"file_name":       p.FileName,
		"sheet_name":      p.SheetName,
		"can_extract":     p.CanExtract,
		"confidence":      p.Confidence,
		"layers_found":    p.LayersFound,
		"carriers_found":  p.CarriersFound,
		"has_percentages": p.HasPercentages,
		"has_currency":    p.HasCurrency,
		"has_terms":       p.HasTerms,
		"issues":          p.Issues,
		"suggestions":     p.Suggestions,
	}
}

// VerificationMetadata describes how a verification result was produced.
type VerificationMetadata struct {
	// FallbackUsed is true when the semantic checker was absent or failed
	// and the result rests on local reconciliation alone.
	FallbackUsed bool
	// ParsingMethod is "local", "structured" or "fallback".
	ParsingMethod string
}

// VerificationResult is the outcome of reconciling extracted entries against
// the sheet's own totals and, optionally, a semantic checker's reading.
type VerificationResult struct {
	Score       float64 // [0,1], 1 = no discrepancies
	Summary     string
	Issues      []string
	Suggestions []string
	Metadata    VerificationMetadata
}

// Flatten returns the result as a flat map.
func (v VerificationResult) Flatten() map[string]any {
	return map[string]any{
		"score":       v.Score,
		"summary":     v.Summary,
		"issues":      v.Issues,
		"suggestions": v.Suggestions,
		"metadata": map[string]any{
			"fallback_used":  v.Metadata.FallbackUsed,
			"parsing_method": v.Metadata.ParsingMethod,
		},
	}
}
