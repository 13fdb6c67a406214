package rankdist

import (
	"math"

	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// maxLogFloat is log(math.MaxFloat64).
var maxLogFloat = math.Log(math.MaxFloat64)

// RankSumTable holds the null counts of the Wilcoxon rank-sum (Mann-Whitney
// U) statistic for sample sizes m and n. The distribution is symmetric in
// both the sizes and about mn/2, so only sizes (min, max) and the lower
// half [0, c] are stored.
type RankSumTable struct {
	small int
	large int
	c     int
	u     int
	total float64
	w     []float64
}

// NewRankSumTable builds the counting table by the recurrence
//
//	f(k, i, j) = f(k-j, i-1, j) + f(k, i, j-1),  f(k, 0, j) = f(k, i, 0) = [k == 0]
//
// evaluated bottom-up over the logical (large+1) x (small+1) x (c+1) table.
// Only two i-slabs are live at a time. Every lookup moves k downwards, so
// truncating k at c never drops a needed cell. maxCells bounds the cells
// actually allocated (the two slabs); zero disables the bound.
func NewRankSumTable(m, n, maxCells int) (*RankSumTable, error) {
	const stage = "rankdist.ranksum_counts"
	if m <= 0 || n <= 0 {
		return nil, errors.Domain(stage, "sample sizes must be at least 1", errors.Inputs{"m": m, "n": n})
	}

	small, large := m, n
	if small > large {
		small, large = large, small
	}

	total, err := choose(m+n, small)
	if err != nil {
		return nil, errors.NumericOverflow(stage, err, errors.Inputs{"m": m, "n": n})
	}

	u := m * n
	c := u / 2
	width := c + 1
	cells := 2 * float64(small+1) * float64(width)
	if maxCells > 0 && cells > float64(maxCells) {
		return nil, errors.NumericOverflow(stage, core.ErrTableTooLarge, errors.Inputs{"m": m, "n": n, "cells": cells, "max_cells": maxCells})
	}

	prev := make([]float64, (small+1)*width)
	cur := make([]float64, (small+1)*width)
	for j := 0; j <= small; j++ {
		prev[j*width] = 1
	}

	for i := 1; i <= large; i++ {
		clear(cur)
		cur[0] = 1
		for j := 1; j <= small; j++ {
			row := cur[j*width : (j+1)*width]
			left := cur[(j-1)*width : j*width]
			up := prev[j*width : (j+1)*width]
			for k := 0; k < width; k++ {
				v := left[k]
				if k >= j {
					v += up[k-j]
				}
				row[k] = v
			}
		}
		prev, cur = cur, prev
	}

	w := make([]float64, width)
	copy(w, prev[small*width:(small+1)*width])

	return &RankSumTable{small: small, large: large, c: c, u: u, total: total, w: w}, nil
}

// Sizes returns the sample sizes as (min, max).
func (t *RankSumTable) Sizes() (int, int) { return t.small, t.large }

// Max returns the largest attainable statistic mn.
func (t *RankSumTable) Max() int { return t.u }

// Count returns the number of arrangements whose statistic equals k.
func (t *RankSumTable) Count(k int) float64 {
	if k < 0 || k > t.u {
		return 0
	}
	if k > t.c {
		k = t.u - k
	}
	return t.w[k]
}

// Total returns C(m+n, n).
func (t *RankSumTable) Total() float64 { return t.total }

// Cells returns the number of stored counts.
func (t *RankSumTable) Cells() int { return len(t.w) }

// choose returns C(n, k) or ErrCountUnderflowed when it is not a finite
// float64.
func choose(n, k int) (float64, error) {
	if k < 0 || k > n {
		return 0, nil
	}
	lg1, _ := math.Lgamma(float64(n + 1))
	lg2, _ := math.Lgamma(float64(k + 1))
	lg3, _ := math.Lgamma(float64(n - k + 1))
	if lg1-lg2-lg3 >= maxLogFloat {
		return 0, core.ErrCountUnderflowed
	}
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	if math.IsInf(r, 0) {
		return 0, core.ErrCountUnderflowed
	}
	return r, nil
}
