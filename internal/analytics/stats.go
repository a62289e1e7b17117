package analytics

import "math"

// mean returns the arithmetic mean, 0 for an empty slice
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// coefficientOfVariation is σ/μ. It is 0 for flat series and whenever μ is 0,
// and unchanged when every value is multiplied by the same positive constant.
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 || math.IsNaN(m) {
		return 0
	}
	return stdDev(values) / math.Abs(m)
}

// linearTrend fits y = intercept + slope*t by ordinary least squares on t = 0..n-1
func linearTrend(y []float64) (intercept, slope float64) {
	n := float64(len(y))
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return y[0], 0
	}

	tMean := (n - 1) / 2
	yMean := mean(y)
	var sxy, sxx float64
	for i, v := range y {
		dt := float64(i) - tMean
		sxy += dt * (v - yMean)
		sxx += dt * dt
	}
	slope = sxy / sxx
	return yMean - slope*tMean, slope
}

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ceil2 rounds up to two decimals, ignoring float noise below 1e-9
func ceil2(v float64) float64 {
	return math.Ceil(v*100-1e-9) / 100
}
