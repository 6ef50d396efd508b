// Package verify reconciles extracted carrier entries against the sheet's
// own totals, optionally blending in a semantic checker's reading.
//
// Local reconciliation always runs and never performs I/O. A
// SemanticChecker, when configured, is called with a time bound; its
// failure degrades the result to local-only and is recorded in the result
// metadata, never returned as an error.
package verify

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tsawler/towerlens/model"
)

// Reconciliation scoring constants.
const (
	penaltyPerIssue    = 0.05
	maxCategoryPenalty = 0.15

	// missingPremiumFloor is the declared premium below which an empty
	// layer is noise rather than an extraction gap.
	missingPremiumFloor = 10000
)

// DefaultCheckTimeout bounds the semantic checker call.
const DefaultCheckTimeout = 30 * time.Second

// Tolerances configures how far totals may drift before reconciliation
// flags them. The defaults are empirical, not contractual; brokers round.
type Tolerances struct {
	// Participation is the allowed absolute deviation of a layer's
	// participation sum from 1.0.
	Participation float64
	// Premium is the allowed relative deviation between computed and
	// declared layer premium.
	Premium float64
	// MissingCarrier is the participation shortfall beyond which a
	// missing carrier is suggested.
	MissingCarrier float64
}

// DefaultTolerances returns the standard drift allowances.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Participation:  0.02,
		Premium:        0.05,
		MissingCarrier: 0.10,
	}
}

// Request is what a semantic checker sees: the sheet rendered as text and
// the entries extracted from it.
type Request struct {
	GridText string
	Entries  []model.CarrierEntry
}

// Finding is a semantic checker's verdict.
type Finding struct {
	Score       float64
	Summary     string
	Issues      []string
	Suggestions []string
	// ParsingMethod records how the checker's response was decoded:
	// "structured" or "fallback".
	ParsingMethod string
}

// SemanticChecker cross-reads the sheet and the extraction. Implementations
// must honor the context deadline.
type SemanticChecker interface {
	Check(ctx context.Context, req Request) (*Finding, error)
}

// Reconciler performs the local cross-checks.
type Reconciler struct {
	tol Tolerances
}

// NewReconciler builds a Reconciler. Zero-valued tolerance fields take
// their defaults.
func NewReconciler(tol Tolerances) *Reconciler {
	def := DefaultTolerances()
	if tol.Participation <= 0 {
		tol.Participation = def.Participation
	}
	if tol.Premium <= 0 {
		tol.Premium = def.Premium
	}
	if tol.MissingCarrier <= 0 {
		tol.MissingCarrier = def.MissingCarrier
	}
	return &Reconciler{tol: tol}
}

// Reconcile checks every layer's totals. The score starts at 1.0 and loses
// penaltyPerIssue per finding, capped per category.
func (r *Reconciler) Reconcile(entries []model.CarrierEntry, summaries []model.LayerSummary) (float64, []string, []string) {
	var issues, suggestions []string
	participationIssues := 0
	premiumIssues := 0

	totals := premiumTotalsByLayer(entries)

	for _, s := range summaries {
		pi, sugg := r.checkParticipation(s)
		if pi != "" {
			participationIssues++
			issues = append(issues, pi)
		}
		if sugg != "" {
			suggestions = append(suggestions, sugg)
		}

		pr, sugg := r.checkPremium(s, totals[s.LayerIndex])
		if pr != "" {
			premiumIssues++
			issues = append(issues, pr)
		}
		if sugg != "" {
			suggestions = append(suggestions, sugg)
		}
	}

	score := 1.0
	score -= math.Min(penaltyPerIssue*float64(participationIssues), maxCategoryPenalty)
	score -= math.Min(penaltyPerIssue*float64(premiumIssues), maxCategoryPenalty)
	score = math.Max(0, math.Min(1, score))

	return score, issues, suggestions
}

// checkParticipation compares a layer's participation sum to 1.0.
func (r *Reconciler) checkParticipation(s model.LayerSummary) (issue, suggestion string) {
	if s.Participation == nil {
		return "", ""
	}
	sum := *s.Participation
	diff := sum - 1.0
	switch {
	case math.Abs(diff) <= r.tol.Participation:
		return "", ""
	case diff > 0:
		return fmt.Sprintf("layer %s: participation sums to %.1f%%, over 100%%",
			s.LayerLimit, sum*100), ""
	case -diff >= r.tol.MissingCarrier:
		return fmt.Sprintf("layer %s: participation sums to %.1f%%, well short of 100%%",
				s.LayerLimit, sum*100),
			fmt.Sprintf("layer %s: a carrier holding ~%.1f%% may be missing from the extraction",
				s.LayerLimit, -diff*100)
	default:
		return fmt.Sprintf("layer %s: participation sums to %.1f%%, off 100%%",
			s.LayerLimit, sum*100), ""
	}
}

// premiumTotalsByLayer sums entry premiums per layer instance, keyed by
// LayerIndex. Limit text is not a key: towers may repeat a limit, and two
// $50M layers must not pool their premiums.
func premiumTotalsByLayer(entries []model.CarrierEntry) map[int]float64 {
	totals := make(map[int]float64)
	for _, e := range entries {
		if e.Premium != nil {
			totals[e.LayerIndex] += *e.Premium
		}
	}
	return totals
}

// checkPremium compares the computed entry-premium sum to the declared
// bound premium from the summary columns.
func (r *Reconciler) checkPremium(s model.LayerSummary, computed float64) (issue, suggestion string) {
	if s.DeclaredPremium == nil {
		return "", ""
	}
	declared := *s.DeclaredPremium

	if computed == 0 {
		if declared > missingPremiumFloor {
			return fmt.Sprintf("layer %s: no carrier premiums extracted but summary declares $%.0f (cell %s)",
					s.LayerLimit, declared, s.Ref),
				fmt.Sprintf("layer %s: carriers may be missing from the extraction", s.LayerLimit)
		}
		return "", ""
	}

	if declared <= 0 {
		return "", ""
	}
	deviation := math.Abs(declared-computed) / declared
	if deviation > r.tol.Premium {
		return fmt.Sprintf("layer %s: carrier premiums $%.0f vs declared $%.0f (cell %s), %.0f%% apart",
			s.LayerLimit, computed, declared, s.Ref, deviation*100), ""
	}
	return "", ""
}

// Run performs local reconciliation and, when a checker is present, blends
// in its finding. The semantic call is bounded by timeout; any failure
// falls back to the local result with Metadata.FallbackUsed set.
func Run(
	ctx context.Context,
	entries []model.CarrierEntry,
	summaries []model.LayerSummary,
	gridText string,
	checker SemanticChecker,
	tol Tolerances,
	timeout time.Duration,
) model.VerificationResult {
	localScore, issues, suggestions := NewReconciler(tol).Reconcile(entries, summaries)

	result := model.VerificationResult{
		Score:       localScore,
		Summary:     localSummary(len(entries), len(issues)),
		Issues:      issues,
		Suggestions: suggestions,
		Metadata: model.VerificationMetadata{
			FallbackUsed:  true,
			ParsingMethod: "local",
		},
	}

	if checker == nil {
		return result
	}

	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	finding, err := checker.Check(cctx, Request{GridText: gridText, Entries: entries})
	if err != nil || finding == nil {
		// Semantic check is advisory; its failure never loses the
		// local result.
		return result
	}

	result.Score = (localScore + finding.Score) / 2
	result.Summary = finding.Summary
	result.Issues = append(result.Issues, finding.Issues...)
	result.Suggestions = append(result.Suggestions, finding.Suggestions...)
	result.Metadata.FallbackUsed = false
	result.Metadata.ParsingMethod = finding.ParsingMethod
	return result
}

func localSummary(entries, issues int) string {
	if issues == 0 {
		return fmt.Sprintf("local reconciliation clean across %d entries", entries)
	}
	return fmt.Sprintf("local reconciliation found %d issue(s) across %d entries", issues, entries)
}
