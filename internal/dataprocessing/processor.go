package dataprocessing

import (
	"sort"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// SeriesProcessor turns normalized rows into contiguous weekly series
type SeriesProcessor struct{}

// NewSeriesProcessor creates a new series processor
func NewSeriesProcessor() *SeriesProcessor {
	return &SeriesProcessor{}
}

// FillMissingWeeks sums duplicate keys and inserts zero-quantity rows for the weeks
// missing between each (customer, part) group's first and last week.
// Output is sorted by customer, part, week. Rows with invalid week keys are dropped.
func (p *SeriesProcessor) FillMissingWeeks(rows []domain.NormalizedRow) []domain.NormalizedRow {
	if len(rows) == 0 {
		return []domain.NormalizedRow{}
	}

	type group struct {
		customer, part string
		byWeek         map[string]float64
	}
	groups := make(map[string]*group)
	for _, r := range rows {
		if _, _, err := ParseWeekKey(r.PeriodKey); err != nil {
			continue
		}
		k := domain.CompositeKey(r.CustomerID, r.PartID)
		g, ok := groups[k]
		if !ok {
			g = &group{customer: r.CustomerID, part: r.PartID, byWeek: make(map[string]float64)}
			groups[k] = g
		}
		g.byWeek[r.PeriodKey] += r.Quantity
	}

	var result []domain.NormalizedRow
	for _, k := range sortedKeys(groups) {
		g := groups[k]
		weeks := make([]string, 0, len(g.byWeek))
		for w := range g.byWeek {
			weeks = append(weeks, w)
		}
		sort.Strings(weeks)

		for week := weeks[0]; week <= weeks[len(weeks)-1]; {
			result = append(result, domain.NormalizedRow{
				CustomerID: g.customer,
				PartID:     g.part,
				PeriodKey:  week,
				Quantity:   g.byWeek[week],
			})
			next, err := AddWeeks(week, 1)
			if err != nil {
				break
			}
			week = next
		}
	}
	return result
}

// sortedKeys returns sorted keys from a map
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
