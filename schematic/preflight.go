package schematic

import (
	"github.com/tsawler/towerlens/model"
)

// Signal weights for the preflight confidence score. Layers and carriers
// dominate: without either there is no tower to extract.
const (
	weightLayers      = 0.3
	weightCarriers    = 0.3
	weightPercentages = 0.2
	weightCurrency    = 0.1
	weightTerms       = 0.1
)

// DefaultPreflightThreshold is the minimum confidence for CanExtract.
const DefaultPreflightThreshold = 0.4

// Preflight scores a classified sheet without assembling entries. The
// carrier weight scales by the mean carrier confidence, so a sheet full of
// guessed names scores lower than one full of registry hits.
func Preflight(blocks []model.ClassifiedBlock, layers []model.Layer, threshold float64) model.PreflightResult {
	if threshold <= 0 {
		threshold = DefaultPreflightThreshold
	}

	res := model.PreflightResult{}

	for _, l := range layers {
		if !l.Synthetic {
			res.LayersFound++
		}
	}

	var carrierConfSum float64
	for _, b := range blocks {
		switch b.Kind {
		case model.Carrier:
			if b.Confidence >= minCarrierConfidence {
				res.CarriersFound++
				carrierConfSum += b.Confidence
			}
		case model.Percentage:
			res.HasPercentages = true
		case model.Currency:
			res.HasCurrency = true
		case model.Terms:
			res.HasTerms = true
		}
	}

	if res.LayersFound > 0 {
		res.Confidence += weightLayers
	}
	if res.CarriersFound > 0 {
		res.Confidence += weightCarriers * (carrierConfSum / float64(res.CarriersFound))
	}
	if res.HasPercentages {
		res.Confidence += weightPercentages
	}
	if res.HasCurrency {
		res.Confidence += weightCurrency
	}
	if res.HasTerms {
		res.Confidence += weightTerms
	}

	if res.LayersFound == 0 {
		res.Issues = append(res.Issues, "no layers detected")
		res.Suggestions = append(res.Suggestions, "check that layer limits appear in the leftmost columns")
	}
	if res.CarriersFound == 0 {
		res.Issues = append(res.Issues, "no carrier names detected")
		res.Suggestions = append(res.Suggestions, "check carrier spelling or extend the registry lexicon")
	}
	if !res.HasPercentages {
		res.Issues = append(res.Issues, "no percentage values found")
		res.Suggestions = append(res.Suggestions, "participation shares may be absent or formatted as text")
	}
	if !res.HasCurrency {
		res.Issues = append(res.Issues, "no currency values found")
		res.Suggestions = append(res.Suggestions, "premium amounts may be absent or on another sheet")
	}

	res.CanExtract = res.Confidence >= threshold && res.LayersFound > 0 && res.CarriersFound > 0
	return res
}
