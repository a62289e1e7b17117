// Package shared holds code used across the engine's packages that belongs to
// no single layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on structured log output
//   - demand batch fixtures in the weekly, monthly and keyed layouts
//   - workbook writers that produce real XLSX and CSV files for parser tests
//
// Nothing here may import the engine packages it is used to test.
package shared
