package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siamhydro/floodwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "floodwatch",
	Short: "Flood-risk scoring pipeline for Thai provinces",
	Long:  "Loads flood observation datasets, scores per-event and per-province risk, extracts surface water from raster grids, and persists results to PostGIS.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
