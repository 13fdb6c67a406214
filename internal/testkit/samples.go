// Package testkit provides seeded sample generators for tests.
package testkit

import (
	"math"
	"math/rand"
)

// SampleGenerator draws reproducible measurement samples.
type SampleGenerator struct {
	rng *rand.Rand
}

// NewSampleGenerator creates a generator with a fixed seed.
func NewSampleGenerator(seed int64) *SampleGenerator {
	return &SampleGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Normal draws n values from N(mu, sd²).
func (g *SampleGenerator) Normal(n int, mu, sd float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mu + sd*g.rng.NormFloat64()
	}
	return out
}

// LogNormal draws n values whose logarithm is N(mu, sigma²).
func (g *SampleGenerator) LogNormal(n int, mu, sigma float64) []float64 {
	out := g.Normal(n, mu, sigma)
	for i, v := range out {
		out[i] = math.Exp(v)
	}
	return out
}

// Bimodal draws n values from an even mixture of N(mu1, sd²) and
// N(mu2, sd²).
func (g *SampleGenerator) Bimodal(n int, mu1, mu2, sd float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		mu := mu1
		if g.rng.Intn(2) == 1 {
			mu = mu2
		}
		out[i] = mu + sd*g.rng.NormFloat64()
	}
	return out
}

// Paired returns (x, y) with y = x + shift + noise, modelling two raters
// measuring the same subjects.
func (g *SampleGenerator) Paired(n int, mu, sd, shift, noise float64) ([]float64, []float64) {
	x := g.Normal(n, mu, sd)
	y := make([]float64, n)
	for i := range x {
		y[i] = x[i] + shift + noise*g.rng.NormFloat64()
	}
	return x, y
}

// Normal draws a seeded N(mu, sd²) sample.
func Normal(seed int64, n int, mu, sd float64) []float64 {
	return NewSampleGenerator(seed).Normal(n, mu, sd)
}

// LogNormal draws a seeded log-normal sample.
func LogNormal(seed int64, n int, mu, sigma float64) []float64 {
	return NewSampleGenerator(seed).LogNormal(n, mu, sigma)
}

// Bimodal draws a seeded two-component mixture.
func Bimodal(seed int64, n int, mu1, mu2, sd float64) []float64 {
	return NewSampleGenerator(seed).Bimodal(n, mu1, mu2, sd)
}
