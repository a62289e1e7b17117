package exporter

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	qtyDecimals   = 2
	ratioDecimals = 4
)

// formatFloat formats a value with a fixed number of decimals. Negative zero
// prints as zero and +Inf as "inf".
func formatFloat(f float64, decimals int) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return decimal.NewFromFloat(f).StringFixed(int32(decimals))
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatCell renders a table cell for CSV output
func formatCell(v any, decimals int) string {
	switch x := v.(type) {
	case float64:
		return formatFloat(x, decimals)
	case int:
		return formatInt(x)
	case string:
		return x
	default:
		return ""
	}
}
