package rankdist

import (
	"math"

	"statsmed/domain/core"
	"statsmed/internal/errors"
)

// maxSignRankN is the largest n for which 2^n is a finite float64.
const maxSignRankN = 1023

// SignRankTable holds the null counts of the Wilcoxon signed-rank statistic
// for n observations. Only the lower half [0, c] is stored; the
// distribution is symmetric about u/2.
type SignRankTable struct {
	n int
	c int
	u int
	w []float64
}

// NewSignRankTable builds the counting table for n observations. maxCells
// bounds the number of stored counts; zero disables the bound.
func NewSignRankTable(n, maxCells int) (*SignRankTable, error) {
	const stage = "rankdist.signrank_counts"
	if n <= 0 {
		return nil, errors.Domain(stage, "n must be at least 1", errors.Inputs{"n": n})
	}
	if n > maxSignRankN {
		return nil, errors.NumericOverflow(stage, core.ErrCountUnderflowed, errors.Inputs{"n": n})
	}

	u := n * (n + 1) / 2
	c := u / 2
	if maxCells > 0 && c+1 > maxCells {
		return nil, errors.NumericOverflow(stage, core.ErrTableTooLarge, errors.Inputs{"n": n, "cells": c + 1, "max_cells": maxCells})
	}

	w := make([]float64, c+1)
	w[0] = 1
	if c >= 1 {
		w[1] = 1
	}
	for j := 2; j <= n; j++ {
		end := j * (j + 1) / 2
		if end > c {
			end = c
		}
		for i := end; i >= j; i-- {
			w[i] += w[i-j]
		}
	}

	return &SignRankTable{n: n, c: c, u: u, w: w}, nil
}

// N returns the number of observations.
func (t *SignRankTable) N() int { return t.n }

// Max returns the largest attainable statistic n(n+1)/2.
func (t *SignRankTable) Max() int { return t.u }

// Count returns the number of sign assignments whose statistic equals k.
func (t *SignRankTable) Count(k int) float64 {
	if k < 0 || k > t.u {
		return 0
	}
	if k > t.c {
		k = t.u - k
	}
	return t.w[k]
}

// Total returns 2^n, the number of sign assignments.
func (t *SignRankTable) Total() float64 {
	return math.Ldexp(1, t.n)
}

// Cells returns the number of stored counts.
func (t *SignRankTable) Cells() int { return len(t.w) }

// Counts returns a copy of the stored half table.
func (t *SignRankTable) Counts() []float64 {
	out := make([]float64, len(t.w))
	copy(out, t.w)
	return out
}
