// Package analytics computes descriptive statistics over submission score
// multisets. Variance and standard deviation are population measures, not
// sample estimates.
package analytics

import (
	"math"
	"sort"
)

// Summary is the statistics record produced for one analytics scope.
type Summary struct {
	MeanScore         float64  `json:"meanScore"`
	MedianScore       float64  `json:"medianScore"`
	ModeScore         *float64 `json:"modeScore"`
	StandardDeviation float64  `json:"standardDeviation"`
	Variance          float64  `json:"variance"`
	HighestScore      float64  `json:"highestScore"`
	LowestScore       float64  `json:"lowestScore"`
	Range             float64  `json:"range"`
	TotalSubmissions  int      `json:"totalSubmissions"`
}

// Describe summarises the given scores. The second return value is false for
// an empty input: a scope with zero submissions yields no data, not a
// zero-valued record.
func Describe(scores []float64) (Summary, bool) {
	n := len(scores)
	if n == 0 {
		return Summary{}, false
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	mean := 0.0
	for _, score := range sorted {
		mean += score
	}
	mean /= float64(n)

	variance := 0.0
	for _, score := range sorted {
		diff := score - mean
		variance += diff * diff
	}
	variance /= float64(n)

	highest := sorted[n-1]
	lowest := sorted[0]

	return Summary{
		MeanScore:         mean,
		MedianScore:       median(sorted),
		ModeScore:         mode(sorted),
		StandardDeviation: math.Sqrt(variance),
		Variance:          variance,
		HighestScore:      highest,
		LowestScore:       lowest,
		Range:             highest - lowest,
		TotalSubmissions:  n,
	}, true
}

func median(sorted []float64) float64 {
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// mode returns the most frequent score, or nil when every value occurs
// exactly once. Ties between equally frequent values resolve to the lowest,
// which the ascending scan makes deterministic.
func mode(sorted []float64) *float64 {
	bestCount := 1
	var best *float64

	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if count := j - i; count > bestCount {
			bestCount = count
			value := sorted[i]
			best = &value
		}
		i = j
	}

	return best
}
