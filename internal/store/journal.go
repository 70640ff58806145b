package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/siamhydro/floodwatch/internal/model"
)

// Journal records pipeline run history in a local SQLite database using
// modernc.org/sqlite.
type Journal struct {
	db *sql.DB
}

// NewJournal opens a SQLite database at the given path and configures WAL mode.
func NewJournal(dsn string) (*Journal, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "journal: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "journal: exec %s", pragma)
		}
	}
	return &Journal{db: sqlDB}, nil
}

const journalMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	dataset       TEXT NOT NULL,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	records_used  INTEGER NOT NULL,
	region_points INTEGER NOT NULL,
	polygons      INTEGER NOT NULL,
	rows_inserted INTEGER NOT NULL,
	artifact_path TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (j *Journal) Migrate(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, journalMigration)
	return eris.Wrap(err, "journal: migrate")
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends a completed run to the journal.
func (j *Journal) Record(ctx context.Context, run model.RunSummary) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, dataset, start_date, end_date, records_used,
			region_points, polygons, rows_inserted, artifact_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Dataset,
		run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02"),
		run.RecordsUsed, run.RegionPoints, run.Polygons, run.RowsInserted,
		run.ArtifactPath, time.Now().UTC(),
	)
	return eris.Wrap(err, "journal: insert run")
}

// List returns the most recent runs, newest first.
func (j *Journal) List(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, dataset, start_date, end_date, records_used,
			region_points, polygons, rows_inserted, artifact_path
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "journal: list runs")
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		var start, end string
		if err := rows.Scan(&r.RunID, &r.Dataset, &start, &end,
			&r.RecordsUsed, &r.RegionPoints, &r.Polygons, &r.RowsInserted,
			&r.ArtifactPath); err != nil {
			return nil, eris.Wrap(err, "journal: scan run")
		}
		if r.StartDate, err = time.Parse("2006-01-02", start); err != nil {
			return nil, eris.Wrap(err, "journal: parse start date")
		}
		if r.EndDate, err = time.Parse("2006-01-02", end); err != nil {
			return nil, eris.Wrap(err, "journal: parse end date")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "journal: list runs iterate")
}
