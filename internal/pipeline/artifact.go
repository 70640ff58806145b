package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/siamhydro/floodwatch/internal/colormap"
	"github.com/siamhydro/floodwatch/internal/model"
	"github.com/siamhydro/floodwatch/internal/risk"
)

// writeRegionArtifact writes region summaries as a GeoJSON FeatureCollection
// of points. Returns "" without writing when dir is empty.
func writeRegionArtifact(dir, runID string, regions []model.RegionSummary) (string, error) {
	if dir == "" {
		return "", nil
	}
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(regions))}
	for _, r := range regions {
		pt := geom.NewPointFlat(geom.XY, []float64{r.Lon, r.Lat})
		pt.SetSRID(4326)
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: pt,
			Properties: map[string]any{
				"province":     r.Province,
				"sample_count": r.SampleCount,
				"flood_rate":   r.FloodRate,
				"risk_score":   r.RiskScore,
				"event_start":  r.EventStart,
				"event_end":    r.EventEnd,
				"detected_at":  r.DetectedAt,
			},
		})
	}
	return writeArtifact(dir, fmt.Sprintf("flood_risk_%s.geojson", runID), fc)
}

// writeEventArtifact writes scored events as a GeoJSON point cloud, each
// point jittered around its province centroid and colored by risk. Events
// whose province has no centroid are skipped.
func writeEventArtifact(dir, runID string, events []model.EventRisk, loc risk.Locator, seed int64) (string, error) {
	if dir == "" {
		return "", nil
	}
	kept := make([]model.EventRisk, 0, len(events))
	for _, e := range events {
		if _, _, ok := loc.Locate(e.Province); ok {
			kept = append(kept, e)
		}
	}
	points := JitterEvents(kept, loc, seed)

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(kept))}
	for i, e := range kept {
		pt := geom.NewPointFlat(geom.XY, []float64{points[i].Lon, points[i].Lat})
		pt.SetSRID(4326)
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: pt,
			Properties: map[string]any{
				"province":   e.Province,
				"date":       e.Timestamp,
				"risk_score": e.RiskScore,
				"color":      colormap.Colorize(e.RiskScore).Hex(),
			},
		})
	}
	return writeArtifact(dir, fmt.Sprintf("flood_events_%s.geojson", runID), fc)
}

// writeWaterArtifact writes extracted water polygons as a GeoJSON
// FeatureCollection.
func writeWaterArtifact(dir, runID string, polys []model.WaterPolygon) (string, error) {
	if dir == "" {
		return "", nil
	}
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(polys))}
	for _, p := range polys {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: p.Geometry,
			Properties: map[string]any{
				"water":       p.Water,
				"area_sqkm":   p.AreaSqKM,
				"mean_mndwi":  p.MeanMNDWI,
				"detected_at": p.DetectedAt,
			},
		})
	}
	return writeArtifact(dir, fmt.Sprintf("water_polygons_%s.geojson", runID), fc)
}

func writeArtifact(dir, name string, fc *geojson.FeatureCollection) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "pipeline: create output dir")
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: encode artifact")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "pipeline: write %s", path)
	}
	return path, nil
}
