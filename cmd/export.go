package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/siamhydro/floodwatch/internal/export"
)

var (
	exportOut      string
	exportLookback int
	exportWater    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recent results to a shapefile",
	Long:  "Exports recent region summaries as a point shapefile, or detected water polygons with --water.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		fs, pool, err := openFloodStore(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		lookback := time.Duration(exportLookback) * 24 * time.Hour

		if exportWater {
			polys, err := fs.ListWaterPolygons(ctx, lookback)
			if err != nil {
				return err
			}
			if err := export.WaterPolygons(exportOut, polys); err != nil {
				return err
			}
			fmt.Printf("Exported %d water polygons to %s\n", len(polys), exportOut)
			return nil
		}

		regions, err := fs.ListRegionSummaries(ctx, lookback)
		if err != nil {
			return err
		}
		if err := export.RegionPoints(exportOut, regions); err != nil {
			return err
		}
		fmt.Printf("Exported %d region points to %s\n", len(regions), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "flood_risk.shp", "output shapefile path")
	exportCmd.Flags().IntVar(&exportLookback, "lookback-days", 30, "how many days of results to export")
	exportCmd.Flags().BoolVar(&exportWater, "water", false, "export water polygons instead of region points")
	rootCmd.AddCommand(exportCmd)
}
