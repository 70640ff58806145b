package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/siamhydro/floodwatch/internal/store"
)

// storePool creates a pgxpool.Pool from the configured database URL.
func storePool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := cfg.Store.DatabaseURL
	if dsn == "" {
		return nil, eris.New("no database_url configured (set store.database_url or FLOODWATCH_STORE_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ping database")
	}

	return pool, nil
}

// openFloodStore wires a FloodStore over a fresh pool. The caller closes the
// returned pool.
func openFloodStore(ctx context.Context) (*store.FloodStore, *pgxpool.Pool, error) {
	pool, err := storePool(ctx)
	if err != nil {
		return nil, nil, err
	}
	fs := store.NewFloodStore(pool, cfg.Store.Schema, cfg.Store.RegionTable, cfg.Store.WaterTable)
	return fs, pool, nil
}

// openJournal opens the local run journal and applies its migration.
func openJournal(ctx context.Context) (*store.Journal, error) {
	journal, err := store.NewJournal(cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	if err := journal.Migrate(ctx); err != nil {
		journal.Close()
		return nil, err
	}
	return journal, nil
}
