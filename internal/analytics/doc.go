// Package analytics implements the single-source deep analysis over normalized
// weekly demand.
//
// Three analyses run over one batch:
//
//   - Volatility: the population coefficient of variation (σ/μ) of each
//     group's weekly totals, ranked descending. A flat series scores 0 and the
//     score is scale-invariant.
//   - Inventory risk: weeks of stock against average weekly consumption.
//     Stock below safety is always critical.
//   - Forecasting: an OLS trend with multiplicative seasonal indices when the
//     history shows a season, a confidence band that widens with the horizon,
//     and anomaly signals for observed weeks outside that band.
//
// Basic usage:
//
//	engine, err := analytics.NewEngine(analytics.DefaultConfig(), logger)
//	if err != nil {
//		return err
//	}
//	report, err := engine.Analyze(ctx, analytics.AnalysisInput{
//		BatchID: batch.BatchID,
//		Rows:    batch.Rows,
//		Stock:   positions,
//	})
package analytics
