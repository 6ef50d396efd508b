package schematic

import (
	"strings"

	"github.com/tsawler/towerlens/model"
	"github.com/tsawler/towerlens/registry"
)

// Classification confidences. Numeric rules outrank textual rules: a value
// that parses as a number is classified by shape before any text pattern
// gets a look, so "0.25" never becomes a carrier name.
const (
	confPercentString = 0.9
	confFraction      = 0.9
	confWholePercent  = 0.6 // (1,100]: percent or plain count, context decides
	confLimitText     = 0.9
	confLargeNumber   = 0.8
	confCurrencyText  = 0.8
	confCurrencyNum   = 0.7
	confExcess        = 0.95
	confLabel         = 0.9
	confPolicy        = 0.85
	confKnownCarrier  = 0.95
	confCarrierGuess  = 0.6
	confTerms         = 0.7
	confFallback      = 0.3
)

// maxLimitCol is the rightmost column (0-indexed) in which a bare large
// number is read as a layer limit. Further right, big numbers are premiums
// or TIVs.
const maxLimitCol = 1

// rule is one entry of the classifier's ordered table. The first rule whose
// predicate accepts the block wins.
type rule struct {
	name  string
	apply func(c *Classifier, b model.Block) (model.Kind, float64, bool)
}

// Classifier assigns a kind and confidence to each discovered block.
type Classifier struct {
	reg   *registry.Registry
	rules []rule
}

// NewClassifier builds a Classifier using the given carrier registry. A nil
// registry falls back to the embedded default lexicon.
func NewClassifier(reg *registry.Registry) *Classifier {
	if reg == nil {
		reg = registry.Default()
	}
	c := &Classifier{reg: reg}
	// Numeric shape rules precede all text rules; within the text rules,
	// the more specific patterns come first.
	c.rules = []rule{
		{"percent-string", (*Classifier).percentString},
		{"numeric-shape", (*Classifier).numericShape},
		{"excess-notation", (*Classifier).excessNotation},
		{"limit-shorthand", (*Classifier).limitShorthand},
		{"currency-string", (*Classifier).currencyString},
		{"structural-label", (*Classifier).structuralLabel},
		{"policy-number", (*Classifier).policyNumber},
		{"coverage-terms", (*Classifier).coverageTerms},
		{"carrier-name", (*Classifier).carrierName},
		{"long-text", (*Classifier).longText},
	}
	return c
}

// Classify runs every block through the rule table, preserving order.
func (c *Classifier) Classify(blocks []model.Block) []model.ClassifiedBlock {
	out := make([]model.ClassifiedBlock, 0, len(blocks))
	for _, b := range blocks {
		kind, conf := c.classifyOne(b)
		out = append(out, model.ClassifiedBlock{Block: b, Kind: kind, Confidence: conf})
	}
	return out
}

func (c *Classifier) classifyOne(b model.Block) (model.Kind, float64) {
	for _, r := range c.rules {
		if kind, conf, ok := r.apply(c, b); ok {
			return kind, conf
		}
	}
	return model.Unclassified, 0
}

// percentString: "25%", "12.5 %".
func (c *Classifier) percentString(b model.Block) (model.Kind, float64, bool) {
	s := strings.TrimSpace(b.Text)
	if !strings.HasSuffix(s, "%") {
		return 0, 0, false
	}
	num := strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if num == "" || !isNumeric(num) {
		return 0, 0, false
	}
	return model.Percentage, confPercentString, true
}

// numericShape classifies bare numbers by magnitude, mirroring how tower
// sheets use them: fractions are participations, thousands are premiums,
// millions in the leftmost columns are limits.
func (c *Classifier) numericShape(b model.Block) (model.Kind, float64, bool) {
	if !b.HasNumber {
		return 0, 0, false
	}
	v := b.Number
	switch {
	case v > 0 && v <= 1:
		return model.Percentage, confFraction, true
	case v > 1 && v <= 100:
		return model.Percentage, confWholePercent, true
	case v > 1e6 && b.StartCol <= maxLimitCol:
		return model.Limit, confLargeNumber, true
	case v > 1e6:
		return model.Currency, confLargeNumber, true
	case v > 1e3:
		return model.Currency, confCurrencyNum, true
	}
	return model.Unclassified, confFallback, true
}

// excessNotation: "$25M xs $25M" and variants describe a layer, not a value.
func (c *Classifier) excessNotation(b model.Block) (model.Kind, float64, bool) {
	if model.IsExcessNotation(b.Text) {
		return model.Description, confExcess, true
	}
	return 0, 0, false
}

// limitShorthand: "$50M", "$250K", "$1B".
func (c *Classifier) limitShorthand(b model.Block) (model.Kind, float64, bool) {
	if model.IsLimitShorthand(b.Text) {
		return model.Limit, confLimitText, true
	}
	return 0, 0, false
}

// currencyString: "$1,000,000" spelled out in full.
func (c *Classifier) currencyString(b model.Block) (model.Kind, float64, bool) {
	s := strings.TrimSpace(b.Text)
	if !strings.HasPrefix(s, "$") {
		return 0, 0, false
	}
	if _, ok := model.ParseMoney(s); ok {
		return model.Currency, confCurrencyText, true
	}
	return 0, 0, false
}

// labelTokens are structural headers that recur across tower schematics.
var labelTokens = map[string]bool{
	"carrier": true, "carriers": true, "insurer": true, "market": true,
	"layer": true, "limit": true, "limits": true, "premium": true,
	"premiums": true, "participation": true, "share": true, "terms": true,
	"status": true, "notes": true, "policy": true, "policy #": true,
	"policy no": true, "attachment": true, "retention": true, "rate": true,
	"bound": true, "quoted": true, "declined": true, "total": true,
	"subtotal": true, "tower": true, "program": true, "structure": true,
	"bound premium": true, "total premium": true, "layer premium": true,
	"layer rate": true, "layer target": true, "annualized premium": true,
}

func (c *Classifier) structuralLabel(b model.Block) (model.Kind, float64, bool) {
	key := strings.ToLower(strings.TrimSpace(b.Text))
	if labelTokens[key] {
		return model.Label, confLabel, true
	}
	if c.reg.IsNonCarrier(b.Text) {
		return model.Label, confLabel, true
	}
	return 0, 0, false
}

// policyNumber: short alphanumeric identifiers with digits and separators,
// like "XPL-2024-0042" or "B0509FINPS2100123".
func (c *Classifier) policyNumber(b model.Block) (model.Kind, float64, bool) {
	s := strings.TrimSpace(b.Text)
	if len(s) < 6 || len(s) > 24 || strings.Contains(s, " ") {
		return 0, 0, false
	}
	digits, letters := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z':
			letters++
		case r == '-' || r == '/' || r == '.':
		default:
			return 0, 0, false
		}
	}
	if digits >= 4 && letters >= 1 {
		return model.PolicyNumber, confPolicy, true
	}
	return 0, 0, false
}

// coverageVocab marks text as coverage terms rather than a name.
var coverageVocab = []string{
	"excl", "exclud", "includ", "sublimit", "sub-limit", "deductible",
	"retention", "aggregate", "flood", "quake", "wind", "named storm",
	"terror", "cyber", "per occurrence", "all risk", "warranty",
	"subject to", "pending", "tbd",
}

func (c *Classifier) coverageTerms(b model.Block) (model.Kind, float64, bool) {
	s := strings.ToLower(b.Text)
	for _, v := range coverageVocab {
		if strings.Contains(s, v) {
			return model.Terms, confTerms, true
		}
	}
	return 0, 0, false
}

func (c *Classifier) carrierName(b model.Block) (model.Kind, float64, bool) {
	// Multi-line cells count if any line resolves; assembly splits them.
	for _, line := range strings.Split(b.Text, "\n") {
		if _, ok := c.reg.Resolve(line); ok {
			return model.Carrier, confKnownCarrier, true
		}
	}
	if c.reg.LooksLikeCarrier(firstLine(b.Text)) {
		return model.Carrier, confCarrierGuess, true
	}
	return 0, 0, false
}

// longText: anything lengthy that survived this far reads as free-form
// terms; short leftovers stay unclassified.
func (c *Classifier) longText(b model.Block) (model.Kind, float64, bool) {
	if len(strings.TrimSpace(b.Text)) > 40 {
		return model.Terms, confFallback, true
	}
	return 0, 0, false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func isNumeric(s string) bool {
	dot := false
	for i, r := range strings.ReplaceAll(s, ",", "") {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot:
			dot = true
		case r == '-' && i == 0:
		default:
			return false
		}
	}
	return len(s) > 0
}
