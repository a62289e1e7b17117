// Package dataprocessing turns decoded spreadsheet rows into canonical weekly demand.
//
// The pipeline has three steps:
//
//	rows := ParseWorkbook(r, "client.xlsx", "")        // spreadsheet -> []domain.RawRow
//	format := DetectFormat(rows)                       // weekly | monthly | weekly-keyed | unknown
//	normalized, err := normalizer.Normalize(ctx, rows, format)
//
// # Formats
//
// Weekly batches have one column per week (WK_01, WK 02, wk-3). The ISO week-year is the
// batch's declared year or NormalizerConfig.DefaultYear; the normalizer never reads the clock.
// Weeks past the year's last ISO week are dropped.
//
// Monthly batches have one column per month (04-2025). Each month's quantity is spread over
// the ISO weeks it overlaps, weighted by day count (MonthlyEvenSpread), or booked on the week
// holding the 15th (MonthlyRepresentative). Both policies preserve the monthly total.
//
// Weekly-keyed batches carry a periodKey field (2025-W07) and pass through.
//
// # Identifiers
//
// Customer, part and quantity fields are found through a fixed alias table compared
// case-insensitively, ignoring spaces, underscores and '#'. Rows missing either identifier
// are skipped. A batch in which no field matches the customer or part aliases at all is
// the one hard failure and yields an errors.AppError of type FORMAT.
//
// SeriesProcessor fills weekly gaps with zero rows so downstream regressions see a
// contiguous week index.
package dataprocessing
