package analytics

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// VolatilityRanker scores how erratic each part's weekly demand is
type VolatilityRanker struct {
	thresholds     VolatilityThresholds
	maxConcurrency int
	logger         *slog.Logger
}

// NewVolatilityRanker creates a new ranker
func NewVolatilityRanker(thresholds VolatilityThresholds, maxConcurrency int, logger *slog.Logger) *VolatilityRanker {
	if logger == nil {
		logger = slog.Default()
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &VolatilityRanker{
		thresholds:     thresholds,
		maxConcurrency: maxConcurrency,
		logger:         logger.With(slog.String("component", "volatility_ranker")),
	}
}

type demandGroup struct {
	part, customer string
	byWeek         map[string]float64
}

// Rank computes one record per group, sorted by descending score with ties
// broken by the part|customer key. Ranks start at 1.
func (v *VolatilityRanker) Rank(ctx context.Context, rows []domain.NormalizedRow, groupBy GroupBy) ([]domain.VolatilityRecord, error) {
	groups := groupDemand(rows, groupBy)
	records := make([]domain.VolatilityRecord, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxConcurrency)
	for i, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = scoreGroup(grp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].VolatilityScore != records[j].VolatilityScore {
			return records[i].VolatilityScore > records[j].VolatilityScore
		}
		return records[i].GroupKey() < records[j].GroupKey()
	})
	for i := range records {
		records[i].Rank = i + 1
	}

	v.logger.DebugContext(ctx, "volatility ranked",
		slog.Int("groups", len(records)),
		slog.String("group_by", string(groupBy)))
	return records, nil
}

// Tier returns the presentation tier for a score
func (v *VolatilityRanker) Tier(score float64) domain.VolatilityTier {
	return ClassifyTier(score, v.thresholds)
}

// ClassifyTier maps a score to high (> High), moderate (> Moderate) or normal
func ClassifyTier(score float64, t VolatilityThresholds) domain.VolatilityTier {
	switch {
	case score > t.High:
		return domain.VolatilityHigh
	case score > t.Moderate:
		return domain.VolatilityModerate
	default:
		return domain.VolatilityNormal
	}
}

// groupDemand sums quantities per group and week; output is sorted by group key
func groupDemand(rows []domain.NormalizedRow, groupBy GroupBy) []*demandGroup {
	index := make(map[string]*demandGroup)
	for _, r := range rows {
		customer := r.CustomerID
		if groupBy == GroupByPart {
			customer = ""
		}
		k := domain.CompositeKey(r.PartID, customer)
		grp, ok := index[k]
		if !ok {
			grp = &demandGroup{part: r.PartID, customer: customer, byWeek: make(map[string]float64)}
			index[k] = grp
		}
		grp.byWeek[r.PeriodKey] += r.Quantity
	}

	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]*demandGroup, len(keys))
	for i, k := range keys {
		groups[i] = index[k]
	}
	return groups
}

func scoreGroup(grp *demandGroup) domain.VolatilityRecord {
	weeks := make([]string, 0, len(grp.byWeek))
	for w := range grp.byWeek {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	values := make([]float64, len(weeks))
	maxQty := 0.0
	for i, w := range weeks {
		values[i] = grp.byWeek[w]
		if values[i] > maxQty {
			maxQty = values[i]
		}
	}

	return domain.VolatilityRecord{
		PartID:          grp.part,
		CustomerID:      grp.customer,
		AvgWeeklyQty:    mean(values),
		MaxWeeklyQty:    maxQty,
		WeekCount:       len(weeks),
		VolatilityScore: coefficientOfVariation(values),
	}
}
