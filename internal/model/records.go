// Package model defines the value records that flow through the flood-risk pipeline.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// RawSample is a single validated observation row from the tabular dataset.
type RawSample struct {
	Timestamp   time.Time `json:"date"`
	Province    string    `json:"province"`
	RainfallMM  float64   `json:"rainfall_mm"`
	WaterLevelM float64   `json:"water_level_m"`
	TempC       float64   `json:"temperature_c"`
	HumidityPct float64   `json:"humidity_percent"`
	FloodFlag   int       `json:"is_flood"`
}

// EventRisk pairs a raw sample with its batch-normalized composite risk score.
// Event records are transient: they feed the dashboard point cloud and are not
// persisted unless a caller writes them out explicitly.
type EventRisk struct {
	RawSample
	RiskScore float64 `json:"event_risk_score"`
}

// RegionSummary is the per-province aggregate produced by one pipeline run.
type RegionSummary struct {
	Province        string    `json:"province"`
	SampleCount     int       `json:"sample_count"`
	FloodEvents     int       `json:"flood_events"`
	FloodRate       float64   `json:"flood_rate"`
	RainfallMMMean  float64   `json:"rainfall_mm_mean"`
	WaterLevelMMean float64   `json:"water_level_m_mean"`
	TempCMean       float64   `json:"temperature_c_mean"`
	HumidityPctMean float64   `json:"humidity_percent_mean"`
	RiskScore       float64   `json:"risk_score"`
	EventStart      time.Time `json:"event_start"`
	EventEnd        time.Time `json:"event_end"`
	DetectedAt      time.Time `json:"detected_at"`
	SourceDataset   string    `json:"source_dataset"`
	Lon             float64   `json:"lon"`
	Lat             float64   `json:"lat"`
}

// WaterPolygon is one vectorized surface-water region extracted from a raster.
// Created once per run and never mutated afterwards.
type WaterPolygon struct {
	Geometry     *geom.Polygon `json:"-"`
	Water        int           `json:"water"`
	AreaSqKM     float64       `json:"area_sqkm"`
	MeanMNDWI    float64       `json:"mean_mndwi"`
	DetectedAt   time.Time     `json:"detected_at"`
	SourceRaster string        `json:"source_raster"`
}

// RunSummary is the pipeline entry contract: what one batch run consumed and produced.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	Dataset      string    `json:"dataset"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	RecordsUsed  int       `json:"records_used"`
	RegionPoints int       `json:"region_points"`
	Polygons     int       `json:"polygons,omitempty"`
	RowsInserted int64     `json:"rows_inserted"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
}
