// Package store persists flood-risk outputs to PostGIS and records run
// history in a local SQLite journal.
package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/siamhydro/floodwatch/internal/db"
	"github.com/siamhydro/floodwatch/internal/model"
)

// FloodStore writes region summaries and water polygons to a PostGIS
// database. All writes are append-only.
type FloodStore struct {
	pool        db.Pool
	schema      string
	regionTable string
	waterTable  string
}

// NewFloodStore creates a FloodStore targeting schema.regionTable and
// schema.waterTable.
func NewFloodStore(pool db.Pool, schema, regionTable, waterTable string) *FloodStore {
	return &FloodStore{
		pool:        pool,
		schema:      schema,
		regionTable: regionTable,
		waterTable:  waterTable,
	}
}

// EnsureSchema creates the PostGIS extension, the target schema, both
// output tables, and their spatial indexes. Safe to call repeatedly.
func (s *FloodStore) EnsureSchema(ctx context.Context) error {
	region := pgx.Identifier{s.schema, s.regionTable}.Sanitize()
	water := pgx.Identifier{s.schema, s.waterTable}.Sanitize()

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{s.schema}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id                    BIGSERIAL PRIMARY KEY,
			province              TEXT NOT NULL,
			sample_count          BIGINT NOT NULL,
			flood_events          BIGINT NOT NULL,
			flood_rate            DOUBLE PRECISION NOT NULL,
			rainfall_mm_mean      DOUBLE PRECISION NOT NULL,
			water_level_m_mean    DOUBLE PRECISION NOT NULL,
			temperature_c_mean    DOUBLE PRECISION,
			humidity_percent_mean DOUBLE PRECISION,
			risk_score            DOUBLE PRECISION NOT NULL,
			event_start           TIMESTAMPTZ NOT NULL,
			event_end             TIMESTAMPTZ NOT NULL,
			detected_at           TIMESTAMPTZ NOT NULL,
			source_dataset        TEXT NOT NULL,
			geometry              geometry(Point, 4326) NOT NULL
		)`, region),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (geometry)`,
			pgx.Identifier{s.regionTable + "_geometry_gix"}.Sanitize(), region),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id            BIGSERIAL PRIMARY KEY,
			water         INTEGER NOT NULL,
			area_sqkm     DOUBLE PRECISION NOT NULL,
			mean_mndwi    DOUBLE PRECISION NOT NULL,
			detected_at   TIMESTAMPTZ NOT NULL,
			source_raster TEXT NOT NULL,
			geometry      geometry(Polygon, 4326) NOT NULL
		)`, water),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (geometry)`,
			pgx.Identifier{s.waterTable + "_geometry_gix"}.Sanitize(), water),
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "store: ensure schema")
		}
	}
	return nil
}

// AppendRegionSummaries inserts region summaries one row at a time.
// An empty slice is a no-op returning 0. Rows already inserted before a
// failure stay inserted.
func (s *FloodStore) AppendRegionSummaries(ctx context.Context, regions []model.RegionSummary) (int64, error) {
	if len(regions) == 0 {
		return 0, nil
	}

	table := pgx.Identifier{s.schema, s.regionTable}.Sanitize()
	query := fmt.Sprintf(`INSERT INTO %s
		(province, sample_count, flood_events, flood_rate, rainfall_mm_mean,
		 water_level_m_mean, temperature_c_mean, humidity_percent_mean, risk_score,
		 event_start, event_end, detected_at, source_dataset, geometry)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        ST_SetSRID(ST_MakePoint($14, $15), 4326))`, table)

	var inserted int64
	for _, r := range regions {
		_, err := s.pool.Exec(ctx, query,
			r.Province, r.SampleCount, r.FloodEvents, r.FloodRate,
			r.RainfallMMMean, r.WaterLevelMMean,
			nullableFloat(r.TempCMean), nullableFloat(r.HumidityPctMean),
			r.RiskScore, r.EventStart, r.EventEnd, r.DetectedAt,
			r.SourceDataset, r.Lon, r.Lat,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "store: insert region %s", r.Province)
		}
		inserted++
	}

	zap.L().Info("appended region summaries",
		zap.Int64("rows", inserted),
		zap.String("table", table))
	return inserted, nil
}

// AppendWaterPolygons inserts detected water polygons as EWKB geometries.
// An empty slice is a no-op returning 0.
func (s *FloodStore) AppendWaterPolygons(ctx context.Context, polys []model.WaterPolygon) (int64, error) {
	if len(polys) == 0 {
		return 0, nil
	}

	table := pgx.Identifier{s.schema, s.waterTable}.Sanitize()
	query := fmt.Sprintf(`INSERT INTO %s
		(water, area_sqkm, mean_mndwi, detected_at, source_raster, geometry)
		VALUES ($1, $2, $3, $4, $5, ST_GeomFromEWKB($6))`, table)

	var inserted int64
	for _, p := range polys {
		wkb, err := ewkb.Marshal(p.Geometry, ewkb.NDR)
		if err != nil {
			return inserted, eris.Wrap(err, "store: encode polygon")
		}
		_, err = s.pool.Exec(ctx, query,
			p.Water, p.AreaSqKM, p.MeanMNDWI, p.DetectedAt, p.SourceRaster, wkb,
		)
		if err != nil {
			return inserted, eris.Wrap(err, "store: insert polygon")
		}
		inserted++
	}

	zap.L().Info("appended water polygons",
		zap.Int64("rows", inserted),
		zap.String("table", table))
	return inserted, nil
}

// ListRegionSummaries returns region summaries detected within the lookback
// window, newest first.
func (s *FloodStore) ListRegionSummaries(ctx context.Context, lookback time.Duration) ([]model.RegionSummary, error) {
	table := pgx.Identifier{s.schema, s.regionTable}.Sanitize()
	query := fmt.Sprintf(`SELECT province, sample_count, flood_events, flood_rate,
			rainfall_mm_mean, water_level_m_mean, temperature_c_mean, humidity_percent_mean,
			risk_score, event_start, event_end, detected_at, source_dataset,
			ST_X(geometry), ST_Y(geometry)
		FROM %s
		WHERE detected_at > now() - $1::interval
		ORDER BY detected_at DESC, province`, table)

	rows, err := s.pool.Query(ctx, query, lookback.String())
	if err != nil {
		return nil, eris.Wrap(err, "store: list regions")
	}
	defer rows.Close()

	var out []model.RegionSummary
	for rows.Next() {
		var r model.RegionSummary
		var tempC, humidity *float64
		err := rows.Scan(&r.Province, &r.SampleCount, &r.FloodEvents, &r.FloodRate,
			&r.RainfallMMMean, &r.WaterLevelMMean, &tempC, &humidity,
			&r.RiskScore, &r.EventStart, &r.EventEnd, &r.DetectedAt,
			&r.SourceDataset, &r.Lon, &r.Lat)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan region")
		}
		r.TempCMean = floatOrNaN(tempC)
		r.HumidityPctMean = floatOrNaN(humidity)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "store: list regions iterate")
}

// ListWaterPolygons returns water polygons detected within the lookback
// window, newest first.
func (s *FloodStore) ListWaterPolygons(ctx context.Context, lookback time.Duration) ([]model.WaterPolygon, error) {
	table := pgx.Identifier{s.schema, s.waterTable}.Sanitize()
	query := fmt.Sprintf(`SELECT water, area_sqkm, mean_mndwi, detected_at,
			source_raster, ST_AsEWKB(geometry)
		FROM %s
		WHERE detected_at > now() - $1::interval
		ORDER BY detected_at DESC, area_sqkm DESC`, table)

	rows, err := s.pool.Query(ctx, query, lookback.String())
	if err != nil {
		return nil, eris.Wrap(err, "store: list polygons")
	}
	defer rows.Close()

	var out []model.WaterPolygon
	for rows.Next() {
		var p model.WaterPolygon
		var wkb []byte
		err := rows.Scan(&p.Water, &p.AreaSqKM, &p.MeanMNDWI, &p.DetectedAt,
			&p.SourceRaster, &wkb)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan polygon")
		}
		g, err := ewkb.Unmarshal(wkb)
		if err != nil {
			return nil, eris.Wrap(err, "store: decode polygon")
		}
		poly, ok := g.(*geom.Polygon)
		if !ok {
			return nil, eris.Errorf("store: unexpected geometry type %T", g)
		}
		p.Geometry = poly
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "store: list polygons iterate")
}

// Ping verifies database connectivity.
func (s *FloodStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "store: ping")
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func floatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
