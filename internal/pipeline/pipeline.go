// Package pipeline orchestrates flood-risk batch runs: load, score,
// aggregate, persist, journal.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/siamhydro/floodwatch/internal/dataset"
	"github.com/siamhydro/floodwatch/internal/geocode"
	"github.com/siamhydro/floodwatch/internal/model"
	"github.com/siamhydro/floodwatch/internal/observability"
	"github.com/siamhydro/floodwatch/internal/raster"
	"github.com/siamhydro/floodwatch/internal/risk"
)

// ErrNoData reports that the requested window, including the trailing
// fallback, matched zero usable rows.
var ErrNoData = eris.New("pipeline: no usable rows in requested window")

// SpatialStore is the persistence surface the pipeline writes to.
type SpatialStore interface {
	AppendRegionSummaries(ctx context.Context, regions []model.RegionSummary) (int64, error)
	AppendWaterPolygons(ctx context.Context, polys []model.WaterPolygon) (int64, error)
}

// RunJournal records completed runs.
type RunJournal interface {
	Record(ctx context.Context, run model.RunSummary) error
}

// Options tune a Runner. Zero values fall back to sensible defaults.
type Options struct {
	MinSamplesPerProvince int
	MNDWIThreshold        float64
	MinAreaSqKM           float64
	OutputDir             string
	JitterSeed            int64
}

// Runner executes batch runs against a spatial store and a run journal.
type Runner struct {
	store   SpatialStore
	journal RunJournal
	locator risk.Locator
	metrics *observability.Metrics
	clock   clockwork.Clock
	opts    Options
}

// NewRunner wires a Runner. journal may be nil when run history is not wanted.
func NewRunner(store SpatialStore, journal RunJournal, locator risk.Locator, metrics *observability.Metrics, clock clockwork.Clock, opts Options) *Runner {
	if opts.MinSamplesPerProvince <= 0 {
		opts.MinSamplesPerProvince = 300
	}
	return &Runner{
		store:   store,
		journal: journal,
		locator: locator,
		metrics: metrics,
		clock:   clock,
		opts:    opts,
	}
}

// RunTabular executes one tabular batch run: fetch the dataset, load and
// filter it, score events, aggregate per province, persist the summaries,
// write the GeoJSON artifact, and journal the run.
func (r *Runner) RunTabular(ctx context.Context, source string, start, end time.Time) (*model.RunSummary, error) {
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID), zap.String("source", source))

	path, cleanup, err := dataset.Fetch(ctx, source)
	if err != nil {
		r.metrics.Runs.WithLabelValues("tabular", "error").Inc()
		return nil, err
	}
	defer cleanup()

	loaded, err := dataset.Load(path, start, end)
	if err != nil {
		r.metrics.Runs.WithLabelValues("tabular", "error").Inc()
		return nil, err
	}
	r.metrics.RowsLoaded.Add(float64(len(loaded.Samples)))
	r.metrics.RowsDropped.Add(float64(loaded.Dropped))

	if len(loaded.Samples) == 0 {
		r.metrics.Runs.WithLabelValues("tabular", "error").Inc()
		return nil, ErrNoData
	}

	events := risk.ScoreEvents(loaded.Samples)
	regions, unresolved := risk.Aggregate(loaded.Samples, r.opts.MinSamplesPerProvince, source, r.locator, r.clock)
	r.metrics.RegionsProduced.Add(float64(len(regions)))
	r.metrics.RegionsUnlocated.Add(float64(unresolved))

	log.Info("aggregated regions",
		zap.Int("events", len(events)),
		zap.Int("regions", len(regions)),
		zap.Int("unresolved", unresolved),
		zap.Time("effective_start", loaded.EffectiveStart),
		zap.Time("effective_end", loaded.EffectiveEnd),
	)

	artifact, err := writeRegionArtifact(r.opts.OutputDir, runID, regions)
	if err != nil {
		r.metrics.Runs.WithLabelValues("tabular", "error").Inc()
		return nil, err
	}
	eventsArtifact, err := writeEventArtifact(r.opts.OutputDir, runID, events, r.locator, r.opts.JitterSeed)
	if err != nil {
		r.metrics.Runs.WithLabelValues("tabular", "error").Inc()
		return nil, err
	}
	if eventsArtifact != "" {
		log.Info("wrote event point cloud", zap.String("path", eventsArtifact))
	}

	inserted, err := r.store.AppendRegionSummaries(ctx, regions)
	if err != nil {
		r.metrics.Runs.WithLabelValues("tabular", "error").Inc()
		return nil, err
	}
	r.metrics.RowsPersisted.Add(float64(inserted))

	run := &model.RunSummary{
		RunID:        runID,
		Dataset:      source,
		StartDate:    loaded.EffectiveStart,
		EndDate:      loaded.EffectiveEnd,
		RecordsUsed:  len(loaded.Samples),
		RegionPoints: len(regions),
		RowsInserted: inserted,
		ArtifactPath: artifact,
	}
	if err := r.recordRun(ctx, run); err != nil {
		return nil, err
	}

	r.metrics.Runs.WithLabelValues("tabular", "ok").Inc()
	return run, nil
}

// RunRaster executes one raster batch run: read the grid, extract water
// polygons, persist them, write the GeoJSON artifact, and journal the run.
// An empty extraction result is a successful run with zero polygons.
func (r *Runner) RunRaster(ctx context.Context, headerPath string) (*model.RunSummary, error) {
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID), zap.String("raster", headerPath))

	grid, err := raster.ReadGrid(headerPath)
	if err != nil {
		r.metrics.Runs.WithLabelValues("raster", "error").Inc()
		return nil, err
	}

	polys, err := raster.Extract(grid, r.opts.MNDWIThreshold, r.opts.MinAreaSqKM, r.clock)
	if err != nil {
		r.metrics.Runs.WithLabelValues("raster", "error").Inc()
		return nil, err
	}
	r.metrics.PolygonsProduced.Add(float64(len(polys)))
	log.Info("extracted water polygons", zap.Int("polygons", len(polys)))

	artifact, err := writeWaterArtifact(r.opts.OutputDir, runID, polys)
	if err != nil {
		r.metrics.Runs.WithLabelValues("raster", "error").Inc()
		return nil, err
	}

	inserted, err := r.store.AppendWaterPolygons(ctx, polys)
	if err != nil {
		r.metrics.Runs.WithLabelValues("raster", "error").Inc()
		return nil, err
	}
	r.metrics.RowsPersisted.Add(float64(inserted))

	now := r.clock.Now().UTC()
	run := &model.RunSummary{
		RunID:        runID,
		Dataset:      headerPath,
		StartDate:    now,
		EndDate:      now,
		RecordsUsed:  grid.Width * grid.Height,
		Polygons:     len(polys),
		RowsInserted: inserted,
		ArtifactPath: artifact,
	}
	if err := r.recordRun(ctx, run); err != nil {
		return nil, err
	}

	r.metrics.Runs.WithLabelValues("raster", "ok").Inc()
	return run, nil
}

func (r *Runner) recordRun(ctx context.Context, run *model.RunSummary) error {
	if r.journal == nil {
		return nil
	}
	return r.journal.Record(ctx, *run)
}

// JitterEvents spreads per-province event points around their centroids for
// display. Events in provinces without a centroid are skipped.
func JitterEvents(events []model.EventRisk, loc risk.Locator, seed int64) []geocode.Point {
	centers := make([]geocode.Point, 0, len(events))
	for _, e := range events {
		lon, lat, ok := loc.Locate(e.Province)
		if !ok {
			continue
		}
		centers = append(centers, geocode.Point{Lon: lon, Lat: lat})
	}
	return geocode.Jitter(seed, centers)
}
