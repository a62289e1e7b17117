package dataprocessing

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tech-visionarieshub/evco-dashboard-sub001/pkg/contracts/domain"
)

var (
	weeklyColumnPattern  = regexp.MustCompile(`(?i)^WK[_\s-]*(\d{1,2})$`)
	monthlyColumnPattern = regexp.MustCompile(`^(\d{2})-(\d{4})$`)
)

// weekColumn parses WK_NN style headers; ok is false outside 1..53
func weekColumn(name string) (week int, ok bool) {
	m := weeklyColumnPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, false
	}
	week, _ = strconv.Atoi(m[1])
	return week, week >= 1 && week <= 53
}

// monthColumn parses MM-YYYY headers; ok is false for months outside 01..12
func monthColumn(name string) (year, month int, ok bool) {
	m := monthlyColumnPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, 0, false
	}
	month, _ = strconv.Atoi(m[1])
	year, _ = strconv.Atoi(m[2])
	return year, month, month >= 1 && month <= 12
}

// DetectFormat classifies a row batch from the field names of its first row.
// Weekly columns win over monthly columns, which win over a periodKey field.
// An empty batch is FormatUnknown.
func DetectFormat(rows []domain.RawRow) domain.DetectedFormat {
	if len(rows) == 0 {
		return domain.DetectedFormat{Kind: domain.FormatUnknown}
	}

	names := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		names = append(names, name)
	}
	sort.Strings(names)

	if cols := weeklyColumns(names); len(cols) > 0 {
		return domain.DetectedFormat{Kind: domain.FormatWeekly, Columns: cols}
	}

	if cols, year := monthlyColumns(names); len(cols) > 0 {
		return domain.DetectedFormat{Kind: domain.FormatMonthly, DeclaredYear: year, Columns: cols}
	}

	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), PeriodKeyField) {
			return domain.DetectedFormat{Kind: domain.FormatWeeklyKeyed}
		}
	}

	return domain.DetectedFormat{Kind: domain.FormatUnknown}
}

func weeklyColumns(names []string) []string {
	type col struct {
		name string
		week int
	}
	var cols []col
	for _, name := range names {
		if week, ok := weekColumn(name); ok {
			cols = append(cols, col{name, week})
		}
	}
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].week < cols[j].week })

	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// monthlyColumns returns matched month columns by (year, month) and the earliest year
func monthlyColumns(names []string) ([]string, int) {
	type col struct {
		name        string
		year, month int
	}
	var cols []col
	for _, name := range names {
		if y, m, ok := monthColumn(name); ok {
			cols = append(cols, col{name, y, m})
		}
	}
	if len(cols) == 0 {
		return nil, 0
	}
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].year != cols[j].year {
			return cols[i].year < cols[j].year
		}
		return cols[i].month < cols[j].month
	})

	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out, cols[0].year
}
