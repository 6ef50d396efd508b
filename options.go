package towerlens

import (
	"time"

	"github.com/tsawler/towerlens/registry"
	"github.com/tsawler/towerlens/schematic"
	"github.com/tsawler/towerlens/verify"
)

// extractOptions holds configuration for tower extraction.
type extractOptions struct {
	// Sheet selection (empty means first sheet)
	sheetName string

	// Confidence bar for the Preflight operation; extraction itself
	// never consults it
	preflightThreshold float64

	// Verification
	tolerances   verify.Tolerances
	checkTimeout time.Duration
	checker      verify.SemanticChecker

	// Carrier lexicon (nil means the embedded default)
	registry *registry.Registry
}

// defaultExtractOptions returns the default extraction options.
func defaultExtractOptions() extractOptions {
	return extractOptions{
		sheetName:          "",
		preflightThreshold: schematic.DefaultPreflightThreshold,
		tolerances:         verify.DefaultTolerances(),
		checkTimeout:       verify.DefaultCheckTimeout,
		checker:            nil,
		registry:           nil,
	}
}

// clone creates a copy of extractOptions. All fields are value types or
// shared immutable references, so a shallow copy suffices.
func (o extractOptions) clone() extractOptions {
	return o
}
