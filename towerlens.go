// Package towerlens provides a fluent API for extracting carrier
// participation data from insurance tower schematic spreadsheets.
//
// Basic usage:
//
//	entries, err := towerlens.Open("tower.xlsx").Entries()
//	if err != nil {
//	    // handle error
//	}
//
// With options:
//
//	entries, err := towerlens.Open("tower.xlsx").
//	    Sheet("2024 Program").
//	    Entries()
//
// Preflight scores a sheet's extractability without extracting; the
// threshold applies only to that check:
//
//	pf, err := towerlens.Open("tower.xlsx").
//	    PreflightThreshold(0.5).
//	    Preflight()
//
// For advanced use cases, the lower-level xlsx and schematic packages are
// also available.
package towerlens

import (
	"github.com/tsawler/towerlens/xlsx"
)

// Open opens an XLSX file and returns an Extractor for fluent configuration.
// The returned Extractor must be closed when done, either explicitly via
// Close() or implicitly when calling a terminal operation like Entries().
//
// Example:
//
//	entries, err := towerlens.Open("tower.xlsx").Entries()
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultExtractOptions(),
	}
}

// FromReader creates an Extractor from an already-opened xlsx.Reader.
// This is useful when you need more control over the reader lifecycle.
// Note: The caller is responsible for closing the reader.
//
// Example:
//
//	r, err := xlsx.Open("tower.xlsx")
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//	entries, err := towerlens.FromReader(r).Entries()
func FromReader(r *xlsx.Reader) *Extractor {
	return &Extractor{
		reader:       r,
		ownsReader:   false,
		readerOpened: true,
		options:      defaultExtractOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	entries := towerlens.Must(towerlens.Open("tower.xlsx").Entries())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
