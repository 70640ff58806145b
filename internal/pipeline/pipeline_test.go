package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siamhydro/floodwatch/internal/model"
	"github.com/siamhydro/floodwatch/internal/observability"
	"github.com/siamhydro/floodwatch/internal/raster"
	"github.com/siamhydro/floodwatch/internal/risk"
)

type fakeStore struct {
	regions  []model.RegionSummary
	polygons []model.WaterPolygon
	fail     bool
}

func (f *fakeStore) AppendRegionSummaries(_ context.Context, regions []model.RegionSummary) (int64, error) {
	if f.fail {
		return 0, fmt.Errorf("store down")
	}
	f.regions = append(f.regions, regions...)
	return int64(len(regions)), nil
}

func (f *fakeStore) AppendWaterPolygons(_ context.Context, polys []model.WaterPolygon) (int64, error) {
	if f.fail {
		return 0, fmt.Errorf("store down")
	}
	f.polygons = append(f.polygons, polys...)
	return int64(len(polys)), nil
}

type fakeJournal struct {
	runs []model.RunSummary
}

func (f *fakeJournal) Record(_ context.Context, run model.RunSummary) error {
	f.runs = append(f.runs, run)
	return nil
}

type mapLocator map[string][2]float64

func (m mapLocator) Locate(province string) (lon, lat float64, ok bool) {
	p, ok := m[province]
	return p[0], p[1], ok
}

var testLocator = mapLocator{
	"Bangkok":    {100.5018, 13.7563},
	"Chiang Mai": {98.9853, 18.7883},
}

var _ risk.Locator = testLocator

func writeDataset(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,province,rainfall_mm,water_level_m,temperature_c,humidity_percent,is_flood\n")
	for i := 0; i < rows; i++ {
		day := 24 + i%7
		flag := 0
		if i%4 == 0 {
			flag = 1
		}
		fmt.Fprintf(&b, "2024-06-%02d,Bangkok,%d,%0.1f,30.0,70.0,%d\n", day, 100+i%20, 2.0+float64(i%5)/10, flag)
	}
	path := filepath.Join(t.TempDir(), "flood.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func newTestRunner(store *fakeStore, journal *fakeJournal, outputDir string) *Runner {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	return NewRunner(store, journal, testLocator, observability.NewMetricsForTesting(), clock, Options{
		MinSamplesPerProvince: 10,
		MNDWIThreshold:        0.2,
		MinAreaSqKM:           0.0,
		OutputDir:             outputDir,
		JitterSeed:            42,
	})
}

func TestRunTabular(t *testing.T) {
	path := writeDataset(t, 40)
	store := &fakeStore{}
	journal := &fakeJournal{}
	outDir := t.TempDir()

	runner := newTestRunner(store, journal, outDir)
	summary, err := runner.RunTabular(context.Background(), path,
		time.Date(2024, 6, 24, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 40, summary.RecordsUsed)
	assert.Equal(t, 1, summary.RegionPoints)
	assert.Equal(t, int64(1), summary.RowsInserted)
	require.Len(t, store.regions, 1)
	assert.Equal(t, "Bangkok", store.regions[0].Province)

	require.Len(t, journal.runs, 1)
	assert.Equal(t, summary.RunID, journal.runs[0].RunID)

	// Both artifacts land in the output dir.
	assert.FileExists(t, summary.ArtifactPath)
	assert.FileExists(t, filepath.Join(outDir, "flood_events_"+summary.RunID+".geojson"))
}

func TestRunTabularNoData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flood.csv")
	content := "date,province,rainfall_mm,water_level_m,temperature_c,humidity_percent,is_flood\n" +
		"garbage,Bangkok,1,1,30,70,0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	runner := newTestRunner(&fakeStore{}, &fakeJournal{}, "")
	_, err := runner.RunTabular(context.Background(), path,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRunTabularSchemaError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flood.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,province\n2024-06-25,Bangkok\n"), 0644))

	runner := newTestRunner(&fakeStore{}, &fakeJournal{}, "")
	_, err := runner.RunTabular(context.Background(), path,
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestRunTabularStoreFailure(t *testing.T) {
	path := writeDataset(t, 40)

	runner := newTestRunner(&fakeStore{fail: true}, &fakeJournal{}, "")
	_, err := runner.RunTabular(context.Background(), path,
		time.Date(2024, 6, 24, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func writeRaster(t *testing.T, wet bool) string {
	t.Helper()
	g := &raster.Grid{
		Width:       4,
		Height:      4,
		OriginLon:   100.0,
		OriginLat:   14.0,
		PixelWidth:  0.001,
		PixelHeight: -0.001,
		Green:       make([]float32, 16),
		SWIR:        make([]float32, 16),
		Valid:       make([]float32, 16),
	}
	for i := range g.Valid {
		g.Valid[i] = 1
		g.Green[i] = 0.1
		g.SWIR[i] = 0.8
	}
	if wet {
		for _, i := range []int{5, 6, 9, 10} {
			g.Green[i] = 0.8
			g.SWIR[i] = 0.1
		}
	}
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, raster.WriteGrid(g, path))
	return path
}

func TestRunRaster(t *testing.T) {
	path := writeRaster(t, true)
	store := &fakeStore{}
	journal := &fakeJournal{}

	runner := newTestRunner(store, journal, t.TempDir())
	summary, err := runner.RunRaster(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 16, summary.RecordsUsed)
	assert.Equal(t, 1, summary.Polygons)
	assert.Equal(t, int64(1), summary.RowsInserted)
	require.Len(t, store.polygons, 1)
	assert.Equal(t, 1, store.polygons[0].Water)
	assert.FileExists(t, summary.ArtifactPath)
	assert.Len(t, journal.runs, 1)
}

func TestRunRasterAllDryIsSuccessfulEmptyRun(t *testing.T) {
	path := writeRaster(t, false)
	store := &fakeStore{}

	runner := newTestRunner(store, &fakeJournal{}, "")
	summary, err := runner.RunRaster(context.Background(), path)
	require.NoError(t, err)

	assert.Zero(t, summary.Polygons)
	assert.Zero(t, summary.RowsInserted)
	assert.Empty(t, store.polygons)
}

func TestJitterEventsSkipsUnknownProvinces(t *testing.T) {
	events := []model.EventRisk{
		{RawSample: model.RawSample{Province: "Bangkok"}},
		{RawSample: model.RawSample{Province: "Atlantis"}},
		{RawSample: model.RawSample{Province: "Chiang Mai"}},
	}

	points := JitterEvents(events, testLocator, 1)
	assert.Len(t, points, 2)
}
