package kmcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistMatrixSymmetricZeroDiagonalNonNegative(t *testing.T) {
	c := NewClusters(3, 2)
	c.SetMean(0, []float64{0, 0})
	c.SetMean(1, []float64{3, 4})
	c.SetMean(2, []float64{-1, -1})

	m := NewDistMatrix(3)
	m.Compute(c)

	for i := 0; i < 3; i++ {
		assert.Zero(t, m.Get(i, i))
		for j := 0; j < 3; j++ {
			assert.GreaterOrEqual(t, m.Get(i, j), 0.0)
			assert.Equal(t, m.Get(i, j), m.Get(j, i))
		}
	}

	// D(0,1) = ||(3,4)|| = 5, half = 2.5
	assert.InDelta(t, 2.5, m.Get(0, 1), 1e-9)
}

func TestDistMatrixMinHalfDist(t *testing.T) {
	c := NewClusters(3, 1)
	c.SetMean(0, []float64{0})
	c.SetMean(1, []float64{10})
	c.SetMean(2, []float64{1})

	m := NewDistMatrix(3)
	m.Compute(c)

	// cluster 0's nearest other centroid is cluster 2 at distance 1, half 0.5
	assert.InDelta(t, 0.5, m.MinHalfDist(0), 1e-9)
}
