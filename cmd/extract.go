package main

import (
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/siamhydro/floodwatch/internal/geocode"
	"github.com/siamhydro/floodwatch/internal/model"
	"github.com/siamhydro/floodwatch/internal/observability"
	"github.com/siamhydro/floodwatch/internal/pipeline"
)

var (
	extractThreshold float64
	extractMinArea   float64
	extractWorkers   int
)

var extractCmd = &cobra.Command{
	Use:   "extract <raster-header.json> [more headers...]",
	Short: "Extract surface-water polygons from raster grids",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("extract"); err != nil {
			return err
		}

		fs, pool, err := openFloodStore(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		journal, err := openJournal(ctx)
		if err != nil {
			return err
		}
		defer journal.Close()

		centroids, err := geocode.LoadTable()
		if err != nil {
			return err
		}

		threshold := extractThreshold
		if !cmd.Flags().Changed("threshold") {
			threshold = cfg.Raster.MNDWIThreshold
		}
		minArea := extractMinArea
		if !cmd.Flags().Changed("min-area") {
			minArea = cfg.Raster.MinAreaSqKM
		}

		runner := pipeline.NewRunner(fs, journal, centroids, observability.NewMetrics(), clockwork.NewRealClock(), pipeline.Options{
			MNDWIThreshold: threshold,
			MinAreaSqKM:    minArea,
			OutputDir:      cfg.Output.Dir,
		})

		var mu sync.Mutex
		var summaries []*model.RunSummary

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(extractWorkers)
		for _, headerPath := range args {
			g.Go(func() error {
				summary, err := runner.RunRaster(gctx, headerPath)
				if err != nil {
					return err
				}
				mu.Lock()
				summaries = append(summaries, summary)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, summary := range summaries {
			fmt.Printf("Run %s (%s): %d polygons, %d rows inserted\n",
				summary.RunID, summary.Dataset, summary.Polygons, summary.RowsInserted)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().Float64Var(&extractThreshold, "threshold", 0.2, "MNDWI water threshold")
	extractCmd.Flags().Float64Var(&extractMinArea, "min-area", 0.01, "minimum polygon area in square km")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 2, "concurrent rasters")
	rootCmd.AddCommand(extractCmd)
}
