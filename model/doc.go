// Package model provides the data types for extracted tower schematic
// content.
//
// This package defines the user-facing structures that represent a tower
// extraction at every stage. All discovery, classification, and assembly
// operations ultimately produce these types, making them the primary API
// for consuming extracted content.
//
// # Pipeline Types
//
// A [Block] is a rectangular region of a worksheet carrying one value; a
// [ClassifiedBlock] adds the detected [Kind] and a confidence. A [Layer]
// is a horizontal band of the tower bound to a limit, and a [CarrierEntry]
// is the finished record of one carrier's participation in one layer.
//
// # Result Types
//
// [PreflightResult] scores a sheet's extractability before the full
// pipeline runs. [VerificationResult] reports how well the finished
// extraction reconciles against the sheet's own totals.
//
// All result types provide a Flatten method that renders them as
// map[string]any for JSON serialization, omitting absent optional fields.
//
// # Notation
//
// The package also parses the shorthand notations that tower schematics
// use: compact money values like "$50M" ([ParseMoney], [FormatLimit]) and
// excess notation like "$25M xs $25M" ([ParseExcess]).
package model
