package dataprocessing

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

// Identifier and quantity aliases in priority order.
// Names are compared after canonicalName folding.
var (
	CustomerAliases = []string{"clientId", "custId", "customerId", "cliente_id"}
	PartAliases     = []string{"partId", "part", "partNum", "Part #", "partNumber", "Part Number", "PART_NUM"}
	QuantityAliases = []string{"qty", "quantity"}
	PeriodKeyField  = "periodKey"
)

// canonicalName lower-cases a field name and drops whitespace, '_' and '#'
func canonicalName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '\t', '\n', '\r', '_', '#':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// aliasIndex maps canonical alias names to their priority
func aliasIndex(aliases []string) map[string]int {
	idx := make(map[string]int, len(aliases))
	for i, a := range aliases {
		c := canonicalName(a)
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return idx
}

var (
	customerIndex = aliasIndex(CustomerAliases)
	partIndex     = aliasIndex(PartAliases)
	quantityIndex = aliasIndex(QuantityAliases)
)

// fieldResolver holds, per batch, the actual field names that resolve to each alias set,
// ordered by alias priority then by field name.
type fieldResolver struct {
	customer []string
	part     []string
	quantity []string
	period   []string
}

func newFieldResolver(rows []domain.RawRow) *fieldResolver {
	names := fieldNames(rows)
	return &fieldResolver{
		customer: matchFields(names, customerIndex),
		part:     matchFields(names, partIndex),
		quantity: matchFields(names, quantityIndex),
		period:   matchFields(names, aliasIndex([]string{PeriodKeyField})),
	}
}

// fieldNames is the sorted union of field names across rows
func fieldNames(rows []domain.RawRow) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, row := range rows {
		for name := range row {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func matchFields(sortedNames []string, index map[string]int) []string {
	type candidate struct {
		name     string
		priority int
	}
	var found []candidate
	for _, name := range sortedNames {
		if p, ok := index[canonicalName(name)]; ok {
			found = append(found, candidate{name: name, priority: p})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].priority < found[j].priority })

	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.name
	}
	return out
}

// hasIdentifiers reports whether both identifier alias sets matched some field
func (r *fieldResolver) hasIdentifiers() bool {
	return len(r.customer) > 0 && len(r.part) > 0
}

// first returns the first populated field among candidates, trimmed
func first(row domain.RawRow, candidates []string) (string, bool) {
	for _, name := range candidates {
		if v := cellString(row[name]); v != "" {
			return v, true
		}
	}
	return "", false
}

// firstValue returns the raw value of the first populated candidate
func firstValue(row domain.RawRow, candidates []string) any {
	for _, name := range candidates {
		if cellString(row[name]) != "" {
			return row[name]
		}
	}
	return nil
}

func searchedAliases() []string {
	out := make([]string, 0, len(CustomerAliases)+len(PartAliases))
	out = append(out, CustomerAliases...)
	return append(out, PartAliases...)
}

// cellString renders a decoded scalar as trimmed text
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// ParseQuantity coerces a cell to a non-negative quantity.
// Unparsable, NaN, infinite and negative values become 0.
func ParseQuantity(v any) float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case int32:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		s := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(cellString(val))
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
