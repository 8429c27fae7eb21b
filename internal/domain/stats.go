package domain

import (
	"math"
	"slices"
	"strconv"
)

// StatValues summarizes a set of reaction times in milliseconds. All fields
// are zero when Count is zero.
type StatValues struct {
	Count   int
	Average float64
	Median  float64
	Best    float64
	Min     float64
	Max     float64
	Q1      float64
	Q3      float64
	StdDev  float64
	SEM     float64
}

func (v StatValues) Empty() bool {
	return v.Count == 0
}

// Summarize computes descriptive statistics at full precision. Quartiles use
// the exclusive-median method: Q1 and Q3 are the medians of the lower and
// upper halves, leaving out the middle element when the count is odd.
func Summarize(times []float64) StatValues {
	if len(times) == 0 {
		return StatValues{}
	}

	sorted := slices.Clone(times)
	slices.Sort(sorted)

	var sum float64
	for _, t := range sorted {
		sum += t
	}
	n := len(sorted)
	average := sum / float64(n)

	mid := n / 2
	lower := sorted[:mid]
	upper := sorted[mid:]
	if n%2 == 1 {
		upper = sorted[mid+1:]
	}

	stdDev := sampleStdDev(sorted, average)

	return StatValues{
		Count:   n,
		Average: average,
		Median:  median(sorted),
		Best:    sorted[0],
		Min:     sorted[0],
		Max:     sorted[n-1],
		Q1:      median(lower),
		Q3:      median(upper),
		StdDev:  stdDev,
		SEM:     stdDev / math.Sqrt(float64(n)),
	}
}

// median expects sorted input and returns 0 for an empty slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}

// FormatMs renders a millisecond value with ScorePrecision decimals.
func FormatMs(v float64) string {
	return strconv.FormatFloat(v, 'f', ScorePrecision, 64)
}
