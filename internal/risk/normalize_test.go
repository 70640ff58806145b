package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxScalesToUnitInterval(t *testing.T) {
	got := MinMax([]float64{2, 4, 6, 10})

	require.Len(t, got, 4)
	assert.InDelta(t, 0.0, got[0], 1e-12)
	assert.InDelta(t, 0.25, got[1], 1e-12)
	assert.InDelta(t, 0.5, got[2], 1e-12)
	assert.InDelta(t, 1.0, got[3], 1e-12)
}

func TestMinMaxConstantSeriesIsAllZeros(t *testing.T) {
	got := MinMax([]float64{3.7, 3.7, 3.7})

	for _, v := range got {
		assert.Equal(t, 0.0, v)
	}
}

func TestMinMaxNearConstantSeriesIsAllZeros(t *testing.T) {
	// Spread below the degeneracy guard behaves like a constant series.
	got := MinMax([]float64{1.0, 1.0 + 1e-10})

	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[1])
}

func TestMinMaxIgnoresNaN(t *testing.T) {
	got := MinMax([]float64{1, math.NaN(), 3})

	assert.InDelta(t, 0.0, got[0], 1e-12)
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 1.0, got[2], 1e-12)
}

func TestMinMaxAllNaN(t *testing.T) {
	got := MinMax([]float64{math.NaN(), math.NaN()})

	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
}

func TestMinMaxEmpty(t *testing.T) {
	assert.Empty(t, MinMax(nil))
}

func TestMinMaxNegativeValues(t *testing.T) {
	got := MinMax([]float64{-10, 0, 10})

	assert.InDelta(t, 0.0, got[0], 1e-12)
	assert.InDelta(t, 0.5, got[1], 1e-12)
	assert.InDelta(t, 1.0, got[2], 1e-12)
}

func TestNanMean(t *testing.T) {
	assert.InDelta(t, 2.0, nanMean([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 2.0, nanMean([]float64{1, math.NaN(), 3}), 1e-12)
	assert.True(t, math.IsNaN(nanMean([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(nanMean(nil)))
}
