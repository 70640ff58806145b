package geocode

import "math/rand"

// Jitter spread and clip bounds for the Thailand-wide point cloud.
const (
	jitterSigmaLon = 0.12
	jitterSigmaLat = 0.10

	clipMinLon = 97.0
	clipMaxLon = 106.0
	clipMinLat = 5.0
	clipMaxLat = 21.0
)

// Jitter offsets each centroid with Gaussian noise so co-located events do not
// collapse to a single map point. The seed is explicit so repeated runs over
// identical input render identically; callers pass a fixed seed, not global
// random state. Results are clipped to the Thailand bounding box.
func Jitter(seed int64, centers []Point) []Point {
	rng := rand.New(rand.NewSource(seed))
	out := make([]Point, len(centers))
	for i, c := range centers {
		out[i] = Point{
			Lon: clamp(c.Lon+rng.NormFloat64()*jitterSigmaLon, clipMinLon, clipMaxLon),
			Lat: clamp(c.Lat+rng.NormFloat64()*jitterSigmaLat, clipMinLat, clipMaxLat),
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
