package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/internal/errors"
	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// MonthlyPolicy decides how a month's quantity maps onto ISO weeks
type MonthlyPolicy string

const (
	// MonthlyEvenSpread spreads the quantity over overlapping ISO weeks by day count
	MonthlyEvenSpread MonthlyPolicy = "even-spread"
	// MonthlyRepresentative books the full quantity on the week containing the 15th
	MonthlyRepresentative MonthlyPolicy = "representative"
)

// spreadPrecision is the decimal places kept per distributed week
const spreadPrecision = 6

// NormalizerConfig holds the inputs the normalizer must never infer on its own
type NormalizerConfig struct {
	// DefaultYear is used for weekly batches that declare no year
	DefaultYear   int
	MonthlyPolicy MonthlyPolicy
}

// NormalizedBatch is the outcome of normalizing one RowBatch
type NormalizedBatch struct {
	BatchID   string
	Format    domain.DetectedFormat
	InputRows int
	Skipped   int
	Rows      []domain.NormalizedRow
}

// Normalizer converts raw rows into canonical (customer, part, ISO week, qty) rows
type Normalizer struct {
	cfg    NormalizerConfig
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. An empty policy means MonthlyEvenSpread.
func NewNormalizer(cfg NormalizerConfig, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MonthlyPolicy == "" {
		cfg.MonthlyPolicy = MonthlyEvenSpread
	}
	return &Normalizer{cfg: cfg, logger: logger.With(slog.String("component", "normalizer"))}
}

// NormalizeBatch detects the batch format and normalizes its rows
func (n *Normalizer) NormalizeBatch(ctx context.Context, batch domain.RowBatch) (*NormalizedBatch, error) {
	format := DetectFormat(batch.Rows)
	rows, skipped, err := n.normalize(ctx, batch.Rows, format)
	if err != nil {
		return nil, err
	}

	n.logger.InfoContext(ctx, "batch normalized",
		slog.String("batch_id", batch.ID),
		slog.String("format", string(format.Kind)),
		slog.Int("input_rows", len(batch.Rows)),
		slog.Int("output_rows", len(rows)),
		slog.Int("skipped_rows", skipped))

	return &NormalizedBatch{
		BatchID:   batch.ID,
		Format:    format,
		InputRows: len(batch.Rows),
		Skipped:   skipped,
		Rows:      rows,
	}, nil
}

// Normalize converts rows of the given format. Rows without both identifiers are
// skipped; an unknown format yields no rows. The only error is a batch in which no
// field resolves to a customer or part alias at all.
func (n *Normalizer) Normalize(ctx context.Context, rows []domain.RawRow, format domain.DetectedFormat) ([]domain.NormalizedRow, error) {
	out, _, err := n.normalize(ctx, rows, format)
	return out, err
}

func (n *Normalizer) normalize(ctx context.Context, rows []domain.RawRow, format domain.DetectedFormat) ([]domain.NormalizedRow, int, error) {
	if format.Kind == domain.FormatUnknown || len(rows) == 0 {
		return []domain.NormalizedRow{}, 0, nil
	}

	fields := newFieldResolver(rows)
	if !fields.hasIdentifiers() {
		return nil, 0, errors.NewNormalizationError(string(format.Kind), searchedAliases())
	}

	var emit func(row domain.RawRow, customer, part string, out []domain.NormalizedRow) ([]domain.NormalizedRow, bool)
	switch format.Kind {
	case domain.FormatWeeklyKeyed:
		emit = n.keyedEmitter(fields)
	case domain.FormatWeekly:
		year := n.cfg.DefaultYear
		if format.HasDeclaredYear() {
			year = format.DeclaredYear
		}
		if year <= 0 {
			return nil, 0, errors.NewAppValidationError("weekly batch has no declared year and no default year is configured")
		}
		emit = weeklyEmitter(format.Columns, year)
	case domain.FormatMonthly:
		emit = n.monthlyEmitter(format.Columns)
	default:
		return []domain.NormalizedRow{}, 0, nil
	}

	out := make([]domain.NormalizedRow, 0, len(rows)*max(1, len(format.Columns)))
	skipped := 0
	for i, row := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		customer, okCustomer := first(row, fields.customer)
		part, okPart := first(row, fields.part)
		if !okCustomer || !okPart {
			skipped++
			continue
		}

		var ok bool
		out, ok = emit(row, customer, part, out)
		if !ok {
			skipped++
		}
	}

	if skipped > 0 {
		n.logger.DebugContext(ctx, "skipped rows during normalization",
			slog.String("format", string(format.Kind)),
			slog.Int("skipped", skipped))
	}

	return out, skipped, nil
}

func (n *Normalizer) keyedEmitter(fields *fieldResolver) func(domain.RawRow, string, string, []domain.NormalizedRow) ([]domain.NormalizedRow, bool) {
	return func(row domain.RawRow, customer, part string, out []domain.NormalizedRow) ([]domain.NormalizedRow, bool) {
		key, _ := first(row, fields.period)
		key = strings.ToUpper(key)
		if _, _, err := ParseWeekKey(key); err != nil {
			return out, false
		}
		return append(out, domain.NormalizedRow{
			CustomerID: customer,
			PartID:     part,
			PeriodKey:  key,
			Quantity:   ParseQuantity(firstValue(row, fields.quantity)),
		}), true
	}
}

func weeklyEmitter(columns []string, year int) func(domain.RawRow, string, string, []domain.NormalizedRow) ([]domain.NormalizedRow, bool) {
	last := WeeksInYear(year)
	return func(row domain.RawRow, customer, part string, out []domain.NormalizedRow) ([]domain.NormalizedRow, bool) {
		for _, col := range columns {
			week, ok := weekColumn(col)
			if !ok || week > last {
				continue
			}
			out = append(out, domain.NormalizedRow{
				CustomerID: customer,
				PartID:     part,
				PeriodKey:  ISOWeekKey(year, week),
				Quantity:   ParseQuantity(row[col]),
			})
		}
		return out, true
	}
}

func (n *Normalizer) monthlyEmitter(columns []string) func(domain.RawRow, string, string, []domain.NormalizedRow) ([]domain.NormalizedRow, bool) {
	return func(row domain.RawRow, customer, part string, out []domain.NormalizedRow) ([]domain.NormalizedRow, bool) {
		for _, col := range columns {
			year, month, ok := monthColumn(col)
			if !ok {
				continue
			}
			qty := ParseQuantity(row[col])

			if n.cfg.MonthlyPolicy == MonthlyRepresentative {
				out = append(out, domain.NormalizedRow{
					CustomerID: customer,
					PartID:     part,
					PeriodKey:  RepresentativeWeek(year, time.Month(month)),
					Quantity:   qty,
				})
				continue
			}

			shares := MonthWeekShares(year, time.Month(month))
			for i, amount := range SpreadByDays(qty, shares) {
				out = append(out, domain.NormalizedRow{
					CustomerID: customer,
					PartID:     part,
					PeriodKey:  shares[i].Key,
					Quantity:   amount,
				})
			}
		}
		return out, true
	}
}

// SpreadByDays distributes qty over shares proportionally to their day counts.
// Each share is rounded down to six decimals and the last share absorbs the
// remainder, so the parts sum exactly to qty and none is negative.
func SpreadByDays(qty float64, shares []WeekShare) []float64 {
	if len(shares) == 0 {
		return nil
	}

	total := decimal.NewFromFloat(qty)
	totalDays := 0
	for _, s := range shares {
		totalDays += s.Days
	}
	days := decimal.NewFromInt(int64(totalDays))

	out := make([]float64, len(shares))
	remaining := total
	for i, s := range shares {
		if i == len(shares)-1 {
			out[i] = remaining.InexactFloat64()
			break
		}
		part := total.Mul(decimal.NewFromInt(int64(s.Days))).Div(days).RoundFloor(spreadPrecision)
		remaining = remaining.Sub(part)
		out[i] = part.InexactFloat64()
	}
	return out
}
