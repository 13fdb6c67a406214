package rankdist

import (
	"sort"
)

// Rank converts values to 1-based ranks, giving tied values the average of
// the ranks they span. The input is not modified.
func Rank(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return []float64{}
	}

	type pair struct {
		value float64
		index int
	}

	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)

	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}

		groupSize := j - i
		avgRank := float64(i+1) + float64(groupSize-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}

		i = j
	}

	return ranks
}

// TieSizes returns the size of every group of equal values with more than
// one member, in ascending value order.
func TieSizes(values []float64) []int {
	if len(values) < 2 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sizes []int
	run := 1
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i] == sorted[i-1] {
			run++
			continue
		}
		if run > 1 {
			sizes = append(sizes, run)
		}
		run = 1
	}
	return sizes
}

// TieSum returns Σ(t³ - t) over the tie groups of values.
func TieSum(values []float64) float64 {
	var s float64
	for _, t := range TieSizes(values) {
		ft := float64(t)
		s += ft*ft*ft - ft
	}
	return s
}

// HasTies reports whether any two values are equal.
func HasTies(values []float64) bool {
	return len(TieSizes(values)) > 0
}
