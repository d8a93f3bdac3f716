package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoquery/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geoquery",
	Short: "Query OpenStreetMap data through Overpass and Nominatim",
	Long:  "Searches places, lists tagged objects around a point and exports element geometry as GeoJSON or shapefiles. Overpass queries are retried on overload within a bounded wait.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
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
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
