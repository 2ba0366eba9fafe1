package stats

import "math"

// Mean calculates the arithmetic mean. Zero for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev calculates the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// ShannonEntropy calculates the Shannon entropy in bits of a frequency
// distribution. Zero-valued entries are ignored.
func ShannonEntropy(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	if sum == 0 {
		return 0
	}
	var entropy float64
	for _, v := range values {
		if v > 0 {
			p := v / sum
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}
