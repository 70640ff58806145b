package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitterDeterministic(t *testing.T) {
	centers := []Point{
		{Lon: 100.5018, Lat: 13.7563},
		{Lon: 98.9853, Lat: 18.7883},
		{Lon: 104.8572, Lat: 15.2448},
	}

	a := Jitter(42, centers)
	b := Jitter(42, centers)
	assert.Equal(t, a, b)
}

func TestJitterSeedChangesOutput(t *testing.T) {
	centers := []Point{{Lon: 100.5018, Lat: 13.7563}}

	a := Jitter(1, centers)
	b := Jitter(2, centers)
	assert.NotEqual(t, a, b)
}

func TestJitterSpreadsCoLocatedPoints(t *testing.T) {
	centers := make([]Point, 50)
	for i := range centers {
		centers[i] = Point{Lon: 100.5018, Lat: 13.7563}
	}

	out := Jitter(7, centers)
	require.Len(t, out, 50)

	seen := make(map[Point]bool)
	for _, p := range out {
		seen[p] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestJitterClipsToBoundingBox(t *testing.T) {
	// Centroids at the box edges get pulled outside by noise and must clip.
	centers := make([]Point, 200)
	for i := range centers {
		if i%2 == 0 {
			centers[i] = Point{Lon: 97.0, Lat: 5.0}
		} else {
			centers[i] = Point{Lon: 106.0, Lat: 21.0}
		}
	}

	for _, p := range Jitter(3, centers) {
		assert.GreaterOrEqual(t, p.Lon, 97.0)
		assert.LessOrEqual(t, p.Lon, 106.0)
		assert.GreaterOrEqual(t, p.Lat, 5.0)
		assert.LessOrEqual(t, p.Lat, 21.0)
	}
}

func TestJitterEmpty(t *testing.T) {
	assert.Empty(t, Jitter(1, nil))
}
