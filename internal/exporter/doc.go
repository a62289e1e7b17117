// Package exporter writes run results as CSV files and a multi-sheet XLSX workbook.
//
// CSV files carry a UTF-8 BOM so Excel opens them with the right encoding.
// Quantities are written with two decimals, ratios (volatility score,
// confidence, anomaly score, delta percent) with four.
//
// Example usage:
//
//	writer := exporter.NewReportWriter(paths, logger)
//	files, err := writer.WriteRun(ctx, run, run.ID)
//
//	// or stream the workbook
//	err = exporter.WriteWorkbook(w, run)
package exporter
