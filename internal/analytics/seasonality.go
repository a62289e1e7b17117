package analytics

// autocorrelation returns the sample autocorrelation of y at the given lag,
// 0 when the series is flat or too short.
func autocorrelation(y []float64, lag int) float64 {
	n := len(y)
	if lag <= 0 || lag >= n {
		return 0
	}
	m := mean(y)
	var num, den float64
	for t := 0; t < n; t++ {
		d := y[t] - m
		den += d * d
		if t >= lag {
			num += d * (y[t-lag] - m)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// centeredMovingAverage returns the classical centered moving average of
// window length. Positions without a full window are marked invalid.
func centeredMovingAverage(y []float64, length int) (values []float64, valid []bool) {
	n := len(y)
	values = make([]float64, n)
	valid = make([]bool, n)
	half := length / 2

	for t := half; t < n-half; t++ {
		var sum float64
		if length%2 == 1 {
			for k := t - half; k <= t+half; k++ {
				sum += y[k]
			}
		} else {
			// 2xL average for even windows
			sum = 0.5*y[t-half] + 0.5*y[t+half]
			for k := t - half + 1; k <= t+half-1; k++ {
				sum += y[k]
			}
		}
		values[t] = sum / float64(length)
		valid[t] = true
	}
	return values, valid
}

// seasonalIndices estimates multiplicative indices for each phase of the season,
// normalized to average 1. ok is false when the history does not carry a
// season strong enough to use.
func seasonalIndices(y []float64, cfg ForecastConfig) (indices []float64, ok bool) {
	length := cfg.SeasonLength
	if length < 2 || len(y) < 2*length {
		return nil, false
	}
	if autocorrelation(y, length) <= cfg.SeasonalityMinCorrelation {
		return nil, false
	}

	cma, valid := centeredMovingAverage(y, length)
	sums := make([]float64, length)
	counts := make([]int, length)
	for t := range y {
		if !valid[t] || cma[t] <= 0 {
			continue
		}
		sums[t%length] += y[t] / cma[t]
		counts[t%length]++
	}

	indices = make([]float64, length)
	total := 0.0
	for p := range indices {
		indices[p] = 1
		if counts[p] > 0 {
			indices[p] = sums[p] / float64(counts[p])
		}
		total += indices[p]
	}
	if total <= 0 {
		return nil, false
	}
	scale := float64(length) / total
	for p := range indices {
		indices[p] *= scale
	}
	return indices, true
}

// seasonalityTag labels a seasonal index that departs from 1 by more than threshold
func seasonalityTag(index, threshold float64) string {
	switch {
	case index >= 1+threshold:
		return TagSeasonalPeak
	case index <= 1-threshold:
		return TagSeasonalTrough
	default:
		return ""
	}
}
