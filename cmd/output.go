package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geoquery/internal/export"
	"github.com/sells-group/geoquery/internal/messages"
)

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "write GeoJSON to this file or directory")
	cmd.Flags().Bool("copy", false, "copy GeoJSON to the clipboard")
	cmd.Flags().String("shp", "", "write an ESRI shapefile to this path")
}

// writeFeatures exports fc as requested by the export flags. Without any of
// them the GeoJSON goes to stdout.
func writeFeatures(cmd *cobra.Command, env *queryEnv, fc *geojson.FeatureCollection) error {
	out, _ := cmd.Flags().GetString("out")
	toClipboard, _ := cmd.Flags().GetBool("copy")
	shpPath, _ := cmd.Flags().GetString("shp")

	if out == "" && !toClipboard && shpPath == "" {
		return export.WriteGeoJSON(os.Stdout, fc)
	}

	p := env.Messages
	if toClipboard {
		if err := export.CopyGeoJSON(fc); err != nil {
			return fmt.Errorf("%s: %w", p.Text(messages.ExportError), err)
		}
		fmt.Fprintln(os.Stderr, p.Text(messages.Copied))
	}
	if out != "" {
		path, err := export.SaveGeoJSON(out, fc)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Text(messages.ExportError), err)
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", p.Text(messages.Downloaded), path)
	}
	if shpPath != "" {
		paths, err := export.SaveShapefile(shpPath, fc)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Text(messages.ExportError), err)
		}
		for _, path := range paths {
			fmt.Fprintf(os.Stderr, "%s: %s\n", p.Text(messages.Downloaded), path)
		}
	}
	return nil
}
