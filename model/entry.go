package model

import "fmt"

// CarrierEntry is one carrier's participation in one layer of the tower.
// Pointer fields are nil when the schematic carried no value for them;
// extraction never invents data.
type CarrierEntry struct {
	Carrier       string
	CanonicalName string // registry-resolved name, "" when unresolved

	// LayerIndex identifies the layer instance in document order. Limit
	// text alone is not an identity: towers may repeat a limit.
	LayerIndex       int
	LayerLimit       string
	LayerDescription string

	ParticipationPct *float64 // normalized to [0,1]
	Premium          *float64 // dollars, >= 0
	PremiumShare     *float64 // carrier's share of layer premium
	AttachmentPoint  *float64 // dollars, from excess notation

	Terms        string
	PolicyNumber string

	Ref       string // A1 reference of the source cell or range
	RowSpan   int
	ColSpan   int
	FillColor string
}

// Flatten returns the entry as a flat map. Nil pointer fields are omitted.
// EntryFromMap reverses it exactly.
func (e CarrierEntry) Flatten() map[string]any {
	m := map[string]any{
		"carrier":     e.Carrier,
		"layer_index": e.LayerIndex,
		"layer_limit": e.LayerLimit,
		"ref":         e.Ref,
		"row_span":    e.RowSpan,
		"col_span":    e.ColSpan,
	}
	if e.CanonicalName != "" {
		m["canonical_name"] = e.CanonicalName
	}
	if e.LayerDescription != "" {
		m["layer_description"] = e.LayerDescription
	}
	if e.ParticipationPct != nil {
		m["participation_pct"] = *e.ParticipationPct
	}
	if e.Premium != nil {
		m["premium"] = *e.Premium
	}
	if e.PremiumShare != nil {
		m["premium_share"] = *e.PremiumShare
	}
	if e.AttachmentPoint != nil {
		m["attachment_point"] = *e.AttachmentPoint
	}
	if e.Terms != "" {
		m["terms"] = e.Terms
	}
	if e.PolicyNumber != "" {
		m["policy_number"] = e.PolicyNumber
	}
	if e.FillColor != "" {
		m["fill_color"] = e.FillColor
	}
	return m
}

// EntryFromMap reconstructs a CarrierEntry from its Flatten form.
func EntryFromMap(m map[string]any) (CarrierEntry, error) {
	var e CarrierEntry
	var err error

	if e.Carrier, err = getString(m, "carrier", true); err != nil {
		return e, err
	}
	if e.LayerLimit, err = getString(m, "layer_limit", true); err != nil {
		return e, err
	}
	if e.Ref, err = getString(m, "ref", true); err != nil {
		return e, err
	}
	e.CanonicalName, _ = getString(m, "canonical_name", false)
	e.LayerDescription, _ = getString(m, "layer_description", false)
	e.Terms, _ = getString(m, "terms", false)
	e.PolicyNumber, _ = getString(m, "policy_number", false)
	e.FillColor, _ = getString(m, "fill_color", false)

	if e.LayerIndex, err = getInt(m, "layer_index"); err != nil {
		return e, err
	}
	if e.RowSpan, err = getInt(m, "row_span"); err != nil {
		return e, err
	}
	if e.ColSpan, err = getInt(m, "col_span"); err != nil {
		return e, err
	}

	e.ParticipationPct = getFloatPtr(m, "participation_pct")
	e.Premium = getFloatPtr(m, "premium")
	e.PremiumShare = getFloatPtr(m, "premium_share")
	e.AttachmentPoint = getFloatPtr(m, "attachment_point")

	return e, nil
}

// LayerSummary reports layer-level totals. Computed values come from summing
// extracted entries; Declared values come from summary columns on the sheet.
// The two are kept separate so a reconciliation pass can compare them.
type LayerSummary struct {
	// LayerIndex matches the entries' LayerIndex for this layer instance.
	LayerIndex    int
	LayerLimit    string
	Participation *float64 // computed sum of entry participations
	Premium       *float64 // computed sum of entry premiums

	DeclaredPremium *float64 // bound premium from a summary column
	DeclaredRate    *float64
	DeclaredTarget  *float64

	Ref string // source range of the declared values, "" when none
}

// Flatten returns the summary as a flat map. Nil fields are omitted.
func (s LayerSummary) Flatten() map[string]any {
	m := map[string]any{
		"layer_index": s.LayerIndex,
		"layer_limit": s.LayerLimit,
	}
	if s.Participation != nil {
		m["participation"] = *s.Participation
	}
	if s.Premium != nil {
		m["premium"] = *s.Premium
	}
	if s.DeclaredPremium != nil {
		m["declared_premium"] = *s.DeclaredPremium
	}
	if s.DeclaredRate != nil {
		m["declared_rate"] = *s.DeclaredRate
	}
	if s.DeclaredTarget != nil {
		m["declared_target"] = *s.DeclaredTarget
	}
	if s.Ref != "" {
		m["ref"] = s.Ref
	}
	return m
}

func getString(m map[string]any, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing key %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("key %q: expected string, got %T", key, v)
	}
	return s, nil
}

func getInt(m map[string]any, key string) (int, error) {
	switch v := m[key].(type) {
	case int:
		return v, nil
	case float64:
		// JSON decoding yields float64 for all numbers
		return int(v), nil
	case nil:
		return 0, fmt.Errorf("missing key %q", key)
	default:
		return 0, fmt.Errorf("key %q: expected int, got %T", key, v)
	}
}

func getFloatPtr(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		f := v
		return &f
	case int:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

// Float returns a pointer to v. Convenience for building records with
// optional numeric fields.
func Float(v float64) *float64 { return &v }
