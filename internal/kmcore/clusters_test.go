package kmcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClustersFinalizeIsMean(t *testing.T) {
	c := NewClusters(2, 2)
	rows := [][]float64{{0, 0}, {2, 0}, {10, 10}}
	c.AddRow(0, rows[0])
	c.AddRow(0, rows[1])
	c.AddRow(1, rows[2])

	c.Finalize(0)
	c.Finalize(1)

	mean0 := c.Mean(0)
	assert.InDelta(t, 1, mean0[0], 1e-9)
	assert.InDelta(t, 0, mean0[1], 1e-9)

	mean1 := c.Mean(1)
	assert.InDelta(t, 10, mean1[0], 1e-9)
	assert.InDelta(t, 10, mean1[1], 1e-9)
}

func TestClustersEmptyClusterKeepsPreviousMean(t *testing.T) {
	c := NewClusters(2, 1)
	c.SetMean(0, []float64{5})
	c.SetMean(1, []float64{9})
	c.SetPrevMeans()

	c.AddRow(0, []float64{7})
	c.Finalize(0)
	c.Finalize(1) // cluster 1 has no members

	assert.Equal(t, 9.0, c.Mean(1)[0])
}

func TestClustersMergeCombinesPartitions(t *testing.T) {
	global := NewClusters(1, 1)
	p1 := NewClusters(1, 1)
	p2 := NewClusters(1, 1)

	p1.AddRow(0, []float64{2})
	p1.AddRow(0, []float64{4})
	p2.AddRow(0, []float64{6})

	global.Merge(p1)
	global.Merge(p2)
	global.Finalize(0)

	assert.InDelta(t, 4, global.Mean(0)[0], 1e-9)
}

func TestClustersSwapMembership(t *testing.T) {
	c := NewClusters(2, 1)
	row := []float64{3}
	c.AddRow(0, row)
	c.SwapMembership(0, 1, row)

	assert.Equal(t, int64(0), c.Count(0))
	assert.Equal(t, int64(1), c.Count(1))
}

func TestClustersRecomputePrevDist(t *testing.T) {
	c := NewClusters(1, 2)
	c.SetMean(0, []float64{0, 0})
	c.SetPrevMeans()
	c.SetMean(0, []float64{3, 4})
	c.RecomputePrevDist(0)

	assert.InDelta(t, 5, c.PrevDist(0), 1e-9)
}

func TestClustersClearResetsCounts(t *testing.T) {
	c := NewClusters(2, 1)
	c.AddRow(0, []float64{1})
	c.AddRow(1, []float64{2})
	c.Clear()

	assert.Equal(t, int64(0), c.Count(0))
	assert.Equal(t, int64(0), c.Count(1))
}
