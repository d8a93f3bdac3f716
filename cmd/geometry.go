package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geoquery/internal/messages"
	"github.com/sells-group/geoquery/pkg/overpass"
)

var geometryCmd = &cobra.Command{
	Use:   "geometry <type> <id>",
	Short: "Fetch the geometry of an OSM element",
	Long:  "Fetches the full geometry of a node, way, relation or area and writes it as GeoJSON. Area ids are mapped to their way or relation first.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		elemType, err := overpass.ParseElementType(args[0])
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return eris.Errorf("invalid id %q", args[1])
		}

		env, err := initQueryEnv("query")
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, env.Messages.Text(messages.RequestingData))
		fc, target, err := env.Loader.Load(cmd.Context(), elemType, id, progress(os.Stderr))
		if err != nil {
			return env.localize(err)
		}
		if target.SourceType != target.Type {
			fmt.Fprintf(os.Stderr, "%s/%d -> %s\n", target.SourceType, target.SourceID, target.Ref())
		}

		return writeFeatures(cmd, env, fc)
	},
}

func init() {
	addExportFlags(geometryCmd)
	rootCmd.AddCommand(geometryCmd)
}
