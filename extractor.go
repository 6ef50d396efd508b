package towerlens

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tsawler/towerlens/model"
	"github.com/tsawler/towerlens/registry"
	"github.com/tsawler/towerlens/schematic"
	"github.com/tsawler/towerlens/verify"
	"github.com/tsawler/towerlens/xlsx"
)

// Extractor provides a fluent interface for extracting carrier entries
// from tower schematic workbooks. Each configuration method returns a new
// Extractor instance, making it safe for concurrent use and allowing
// method chaining.
type Extractor struct {
	// Source
	filename string

	// Reader
	reader *xlsx.Reader

	// Lifecycle
	ownsReader   bool // true if we opened the reader and should close it
	readerOpened bool // true if reader has been opened

	// Configuration
	options extractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a copy of options.
// This ensures immutability - each chain method returns a new instance.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename:     e.filename,
		reader:       e.reader,
		ownsReader:   e.ownsReader,
		readerOpened: e.readerOpened,
		options:      e.options.clone(),
		err:          e.err,
	}
}

// ensureReader opens the reader if not already open.
func (e *Extractor) ensureReader() error {
	if e.readerOpened {
		return nil
	}
	if e.filename == "" {
		return fmt.Errorf("no filename specified")
	}

	r, err := xlsx.Open(e.filename)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	e.reader = r
	e.ownsReader = true
	e.readerOpened = true
	return nil
}

// Close releases resources associated with the Extractor.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if e.ownsReader && e.reader != nil {
		err := e.reader.Close()
		e.reader = nil
		e.ownsReader = false
		return err
	}
	return nil
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Sheet selects the worksheet to extract from by name. Without it the
// first sheet is used.
//
// Example:
//
//	entries, err := towerlens.Open("tower.xlsx").Sheet("2024 Program").Entries()
func (e *Extractor) Sheet(name string) *Extractor {
	newExt := e.clone()
	newExt.options.sheetName = name
	return newExt
}

// PreflightThreshold sets the confidence Preflight requires before it
// reports a sheet as extractable. It only affects Preflight; the
// extraction operations run regardless and record degradation in their
// results.
//
// Example:
//
//	pf, err := towerlens.Open("tower.xlsx").PreflightThreshold(0.5).Preflight()
func (e *Extractor) PreflightThreshold(threshold float64) *Extractor {
	newExt := e.clone()
	newExt.options.preflightThreshold = threshold
	return newExt
}

// ParticipationTolerance sets the allowed absolute deviation of a layer's
// participation sum from 100% before verification flags it.
func (e *Extractor) ParticipationTolerance(tol float64) *Extractor {
	newExt := e.clone()
	newExt.options.tolerances.Participation = tol
	return newExt
}

// PremiumTolerance sets the allowed relative deviation between computed
// and declared layer premium before verification flags it.
func (e *Extractor) PremiumTolerance(tol float64) *Extractor {
	newExt := e.clone()
	newExt.options.tolerances.Premium = tol
	return newExt
}

// MissingCarrierMargin sets the participation shortfall beyond which
// verification suggests a missing carrier.
func (e *Extractor) MissingCarrierMargin(margin float64) *Extractor {
	newExt := e.clone()
	newExt.options.tolerances.MissingCarrier = margin
	return newExt
}

// CheckTimeout bounds the semantic checker call during Verify.
func (e *Extractor) CheckTimeout(d time.Duration) *Extractor {
	newExt := e.clone()
	newExt.options.checkTimeout = d
	return newExt
}

// WithChecker attaches a semantic checker that Verify consults after
// local reconciliation. Without one, Verify returns the local result.
//
// Example:
//
//	checker, err := gemini.NewChecker(ctx, gemini.FromEnv())
//	if err != nil {
//	    // handle error
//	}
//	result, err := towerlens.Open("tower.xlsx").WithChecker(checker).Verify(ctx)
func (e *Extractor) WithChecker(c verify.SemanticChecker) *Extractor {
	newExt := e.clone()
	newExt.options.checker = c
	return newExt
}

// WithRegistry replaces the embedded carrier lexicon, for programs that
// maintain their own carrier lists.
func (e *Extractor) WithRegistry(reg *registry.Registry) *Extractor {
	newExt := e.clone()
	newExt.options.registry = reg
	return newExt
}

// ============================================================================
// Terminal Operations (execute extraction and return results)
// ============================================================================

// Entries extracts the carrier participation entries from the configured
// sheet. This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	entries, err := towerlens.Open("tower.xlsx").Entries()
func (e *Extractor) Entries() ([]model.CarrierEntry, error) {
	entries, _, err := e.EntriesWithSummaries()
	return entries, err
}

// EntriesWithSummaries extracts the carrier entries together with the
// per-layer summaries (participation and premium sums, declared totals).
// This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	entries, summaries, err := towerlens.Open("tower.xlsx").EntriesWithSummaries()
func (e *Extractor) EntriesWithSummaries() ([]model.CarrierEntry, []model.LayerSummary, error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	sheet, err := e.resolveSheet()
	if err != nil {
		return nil, nil, err
	}

	entries, summaries, _ := e.extract(sheet)
	return entries, summaries, nil
}

// Preflight scores the configured sheet's extractability without running
// the full extraction. This is a terminal operation that closes the
// underlying reader.
//
// Example:
//
//	pf, err := towerlens.Open("tower.xlsx").Preflight()
//	if !pf.CanExtract {
//	    log.Println("skipping:", pf.Issues)
//	}
func (e *Extractor) Preflight() (model.PreflightResult, error) {
	if e.err != nil {
		return model.PreflightResult{}, e.err
	}

	if err := e.ensureReader(); err != nil {
		return model.PreflightResult{}, err
	}
	defer e.Close()

	sheet, err := e.resolveSheet()
	if err != nil {
		return model.PreflightResult{}, err
	}

	blocks := schematic.NewClassifier(e.options.registry).Classify(schematic.FindBlocks(sheet))
	layers := schematic.IdentifyLayers(blocks, sheet.MaxRow)
	pf := schematic.Preflight(blocks, layers, e.options.preflightThreshold)
	pf.FileName = filepath.Base(e.filename)
	pf.SheetName = sheet.Name
	return pf, nil
}

// Verify extracts the configured sheet and cross-checks the result: layer
// participation sums, computed versus declared premiums, and, when a
// checker is configured, a semantic review of the extraction. A checker
// failure degrades to the local result and is recorded in the result
// metadata. This is a terminal operation that closes the underlying reader.
//
// Example:
//
//	result, err := towerlens.Open("tower.xlsx").Verify(ctx)
//	if result.Score < 0.8 {
//	    log.Println("review needed:", result.Issues)
//	}
func (e *Extractor) Verify(ctx context.Context) (model.VerificationResult, error) {
	if e.err != nil {
		return model.VerificationResult{}, e.err
	}

	if err := e.ensureReader(); err != nil {
		return model.VerificationResult{}, err
	}
	defer e.Close()

	sheet, err := e.resolveSheet()
	if err != nil {
		return model.VerificationResult{}, err
	}

	entries, summaries, gridText := e.extract(sheet)
	return verify.Run(ctx, entries, summaries, gridText,
		e.options.checker, e.options.tolerances, e.options.checkTimeout), nil
}

// SheetNames returns the names of all worksheets in the workbook.
// Note: This does NOT close the reader, allowing further operations.
//
// Example:
//
//	ext := towerlens.Open("tower.xlsx")
//	defer ext.Close()
//	names, err := ext.SheetNames()
func (e *Extractor) SheetNames() ([]string, error) {
	if e.err != nil {
		return nil, e.err
	}

	if err := e.ensureReader(); err != nil {
		return nil, err
	}

	return e.reader.SheetNames(), nil
}

// ============================================================================
// Internal helpers
// ============================================================================

// resolveSheet returns the configured sheet, or the first one when no
// name was set.
func (e *Extractor) resolveSheet() (*xlsx.Sheet, error) {
	if e.options.sheetName != "" {
		sheet, err := e.reader.SheetByName(e.options.sheetName)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", e.options.sheetName, err)
		}
		return sheet, nil
	}

	sheet, err := e.reader.Sheet(0)
	if err != nil {
		return nil, fmt.Errorf("first sheet: %w", err)
	}
	return sheet, nil
}

// extract runs the full pipeline over a sheet and returns the entries,
// the per-layer summaries, and the sheet rendered as grid text.
func (e *Extractor) extract(sheet *xlsx.Sheet) ([]model.CarrierEntry, []model.LayerSummary, string) {
	blocks := schematic.NewClassifier(e.options.registry).Classify(schematic.FindBlocks(sheet))
	graph := schematic.BuildGraph(blocks)
	sums := schematic.DetectSummaryColumns(sheet, blocks)
	layers := schematic.IdentifyLayers(blocks, sheet.MaxRow)
	entries, summaries := schematic.NewAssembler(e.options.registry).Assemble(sheet, blocks, layers, graph, sums)
	return entries, summaries, sheet.GridText()
}
