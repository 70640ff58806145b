package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siamhydro/floodwatch/internal/model"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	require.NoError(t, j.Migrate(context.Background()))
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecordAndList(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	run := model.RunSummary{
		RunID:        "run-1",
		Dataset:      "thai_flood.csv",
		StartDate:    time.Date(2024, 6, 24, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		RecordsUsed:  1200,
		RegionPoints: 4,
		RowsInserted: 4,
		ArtifactPath: "data/output/flood_risk_run-1.geojson",
	}
	require.NoError(t, j.Record(ctx, run))

	got, err := j.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, run, got[0])
}

func TestJournalListNewestFirst(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, j.Record(ctx, model.RunSummary{
			RunID:     id,
			Dataset:   "src",
			StartDate: time.Date(2024, 6, 1+i, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 6, 2+i, 0, 0, 0, 0, time.UTC),
		}))
	}

	got, err := j.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-c", got[0].RunID)
	assert.Equal(t, "run-b", got[1].RunID)
}

func TestJournalListEmpty(t *testing.T) {
	j := newTestJournal(t)

	got, err := j.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJournalMigrateIdempotent(t *testing.T) {
	j := newTestJournal(t)
	assert.NoError(t, j.Migrate(context.Background()))
}
