package rankdist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank_AveragesTies(t *testing.T) {
	data := []float64{3, 1, 4, 1, 5}
	assert.Equal(t, []float64{3, 1.5, 4, 1.5, 5}, Rank(data))
	assert.Equal(t, []float64{3, 1, 4, 1, 5}, data, "input must not be reordered")
	assert.Empty(t, Rank(nil))
}

func TestTieSizes(t *testing.T) {
	assert.Equal(t, []int{2, 3}, TieSizes([]float64{2, 1, 2, 7, 7, 7}))
	assert.Nil(t, TieSizes([]float64{1, 2, 3}))
	assert.False(t, HasTies([]float64{1, 2, 3}))
	assert.True(t, HasTies([]float64{1, 2, 2}))
	assert.Equal(t, 6.0+24.0, TieSum([]float64{2, 1, 2, 7, 7, 7}))
}
