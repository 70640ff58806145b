package raster

import (
	"math"
	"sort"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/siamhydro/floodwatch/internal/model"
)

// mndwiEpsilon guards the index denominator when both bands are zero.
const mndwiEpsilon = 1e-6

// earthRadiusM is the mean Earth radius used by the sinusoidal projection.
const earthRadiusM = 6371008.8

// MNDWI computes the modified normalized-difference water index for one pixel.
func MNDWI(green, swir float64) float64 {
	return (green - swir) / (green + swir + mndwiEpsilon)
}

// Extract thresholds the water index into a binary mask, vectorizes connected
// mask regions into polygons, and returns those at or above minAreaSqKM.
//
// Components use 4-connectivity: diagonal pixel neighbors are separate
// regions. Polygon area is computed after projecting ring vertices with a
// sinusoidal (equal-area) projection, never from raw degrees. The mean index
// is computed over each surviving polygon's pixel footprint, after the area
// filter since area is the gating criterion. An all-dry raster yields an
// empty result, not an error.
func Extract(g *Grid, threshold, minAreaSqKM float64, clock clockwork.Clock) ([]model.WaterPolygon, error) {
	n := g.Width * g.Height
	if len(g.Green) != n || len(g.SWIR) != n || len(g.Valid) != n {
		return nil, eris.Errorf("raster: band length mismatch for %dx%d grid", g.Width, g.Height)
	}

	index := make([]float64, n)
	water := make([]bool, n)
	for i := 0; i < n; i++ {
		index[i] = MNDWI(float64(g.Green[i]), float64(g.SWIR[i]))
		water[i] = index[i] > threshold && g.Valid[i] > 0
	}

	components := labelComponents(g.Width, g.Height, water)
	if len(components) == 0 {
		return nil, nil
	}

	detectedAt := clock.Now().UTC()
	var out []model.WaterPolygon
	for _, comp := range components {
		rings := traceRings(g, comp)
		if len(rings) == 0 {
			continue
		}
		poly, areaSqKM := buildPolygon(g, rings)
		if poly == nil || areaSqKM < minAreaSqKM {
			continue
		}
		out = append(out, model.WaterPolygon{
			Geometry:     poly,
			Water:        1,
			AreaSqKM:     areaSqKM,
			MeanMNDWI:    footprintMean(index, comp.pixels),
			DetectedAt:   detectedAt,
			SourceRaster: g.Source,
		})
	}

	zap.L().Info("raster: extraction complete",
		zap.Int("candidates", len(components)),
		zap.Int("polygons", len(out)),
	)
	return out, nil
}

// component is one 4-connected region of water pixels.
type component struct {
	label  int32
	pixels []int32 // row-major pixel indexes
	labels []int32 // shared label grid for membership checks
}

// labelComponents performs 4-connected labeling of the water mask.
func labelComponents(width, height int, water []bool) []component {
	labels := make([]int32, len(water))
	var comps []component
	var stack []int32

	next := int32(0)
	for start := range water {
		if !water[start] || labels[start] != 0 {
			continue
		}
		next++
		comp := component{label: next}
		stack = append(stack[:0], int32(start))
		labels[start] = next

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp.pixels = append(comp.pixels, p)

			r, c := int(p)/width, int(p)%width
			for _, nb := range [4][2]int{{r - 1, c}, {r + 1, c}, {r, c - 1}, {r, c + 1}} {
				nr, nc := nb[0], nb[1]
				if nr < 0 || nr >= height || nc < 0 || nc >= width {
					continue
				}
				q := int32(nr*width + nc)
				if water[q] && labels[q] == 0 {
					labels[q] = next
					stack = append(stack, q)
				}
			}
		}
		// In-set membership is checked against labels during tracing.
		comp.labels = labels
		comps = append(comps, comp)
	}
	return comps
}

// vertex is a lattice corner of the pixel grid.
type vertex struct{ col, row int32 }

// dirEdge is a unit boundary edge directed so the component interior lies on
// its right in screen coordinates (x = col increasing east, y = row
// increasing south).
type dirEdge struct {
	from, to vertex
	used     bool
}

// traceRings extracts the closed boundary rings of a component. Exterior
// rings and hole rings fall out of the same edge-following pass; orientation
// distinguishes them downstream via signed area.
func traceRings(g *Grid, comp component) [][]vertex {
	width := int32(g.Width)
	in := func(r, c int32) bool {
		if r < 0 || r >= int32(g.Height) || c < 0 || c >= width {
			return false
		}
		return comp.labels[r*width+c] == comp.label
	}

	var edges []dirEdge
	for _, p := range comp.pixels {
		r, c := p/width, p%width
		if !in(r-1, c) { // top: west → east
			edges = append(edges, dirEdge{from: vertex{c, r}, to: vertex{c + 1, r}})
		}
		if !in(r, c+1) { // right: north → south
			edges = append(edges, dirEdge{from: vertex{c + 1, r}, to: vertex{c + 1, r + 1}})
		}
		if !in(r+1, c) { // bottom: east → west
			edges = append(edges, dirEdge{from: vertex{c + 1, r + 1}, to: vertex{c, r + 1}})
		}
		if !in(r, c-1) { // left: south → north
			edges = append(edges, dirEdge{from: vertex{c, r + 1}, to: vertex{c, r}})
		}
	}

	byStart := make(map[vertex][]int, len(edges))
	for i, e := range edges {
		byStart[e.from] = append(byStart[e.from], i)
	}

	var rings [][]vertex
	for i := range edges {
		if edges[i].used {
			continue
		}
		ring := followRing(edges, byStart, i)
		if len(ring) >= 4 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// followRing walks directed edges from a starting edge until the ring closes.
// At a corner-touch vertex two continuations exist; the rightmost turn keeps
// the ring simple (interior stays on the right).
func followRing(edges []dirEdge, byStart map[vertex][]int, start int) []vertex {
	ring := []vertex{edges[start].from}
	cur := start
	for {
		edges[cur].used = true
		end := edges[cur].to
		ring = append(ring, end)
		if end == edges[start].from {
			return ring
		}

		next := -1
		bestRank := 4
		inDir := direction(edges[cur])
		for _, cand := range byStart[end] {
			if edges[cand].used {
				continue
			}
			if rank := turnRank(inDir, direction(edges[cand])); rank < bestRank {
				bestRank = rank
				next = cand
			}
		}
		if next < 0 {
			// Open chain; should not happen for a well-formed mask boundary.
			return nil
		}
		cur = next
	}
}

func direction(e dirEdge) [2]int32 {
	return [2]int32{e.to.col - e.from.col, e.to.row - e.from.row}
}

// turnRank orders continuations: right turn, straight, left turn.
func turnRank(in, out [2]int32) int {
	right := [2]int32{-in[1], in[0]} // clockwise rotation in screen coords
	switch out {
	case right:
		return 0
	case in:
		return 1
	default:
		return 2
	}
}

// buildPolygon converts lattice rings to a geographic polygon and returns its
// equal-area-projected area in km². The ring with the largest projected area
// is the exterior; the rest are holes.
func buildPolygon(g *Grid, rings [][]vertex) (*geom.Polygon, float64) {
	type ringArea struct {
		coords []float64 // flat lon/lat pairs, closed
		areaM2 float64   // unsigned projected area
	}

	ras := make([]ringArea, 0, len(rings))
	for _, ring := range rings {
		coords := make([]float64, 0, len(ring)*2)
		for _, v := range ring {
			lon, lat := g.vertexLonLat(float64(v.col), float64(v.row))
			coords = append(coords, lon, lat)
		}
		ras = append(ras, ringArea{coords: coords, areaM2: math.Abs(projectedAreaM2(coords))})
	}

	// Exterior first, then holes.
	sort.Slice(ras, func(i, j int) bool { return ras[i].areaM2 > ras[j].areaM2 })

	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	area := ras[0].areaM2
	if err := poly.Push(geom.NewLinearRingFlat(geom.XY, ras[0].coords)); err != nil {
		zap.L().Debug("raster: skipping malformed exterior ring", zap.Error(err))
		return nil, 0
	}
	for _, hole := range ras[1:] {
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, hole.coords)); err != nil {
			zap.L().Debug("raster: skipping malformed hole ring", zap.Error(err))
			continue
		}
		area -= hole.areaM2
	}
	return poly, area / 1e6
}

// projectedAreaM2 computes the shoelace area of a closed lon/lat ring after a
// sinusoidal projection, which is equal-area and locally accurate, avoiding
// the distortion of computing areas in raw degrees.
func projectedAreaM2(coords []float64) float64 {
	n := len(coords) / 2
	if n < 4 {
		return 0
	}
	project := func(i int) (x, y float64) {
		lon := coords[2*i] * math.Pi / 180
		lat := coords[2*i+1] * math.Pi / 180
		return earthRadiusM * lon * math.Cos(lat), earthRadiusM * lat
	}

	var sum float64
	x0, y0 := project(0)
	for i := 0; i < n-1; i++ {
		x1, y1 := project(i + 1)
		sum += x0*y1 - x1*y0
		x0, y0 = x1, y1
	}
	return sum / 2
}

// footprintMean averages the index over a pixel footprint; NaN when empty.
func footprintMean(index []float64, pixels []int32) float64 {
	if len(pixels) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, p := range pixels {
		sum += index[p]
	}
	return sum / float64(len(pixels))
}
