package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geoquery/internal/export"
	"github.com/sells-group/geoquery/internal/messages"
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List tagged OSM objects around a point",
	Long:  "Lists nodes, ways and relations with tags within 45 m of a point, plus the areas enclosing it. The point is given with --lat/--lon or looked up with --place.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initQueryEnv("query")
		if err != nil {
			return err
		}

		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		place, _ := cmd.Flags().GetString("place")
		pick, _ := cmd.Flags().GetInt("pick")
		format, _ := cmd.Flags().GetString("format")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")

		switch format {
		case "table", "json", "yaml":
		default:
			return eris.Errorf("unknown format %q (table, json, yaml)", format)
		}

		switch {
		case place != "":
			fmt.Fprintln(os.Stderr, env.Messages.Text(messages.SearchingPlace))
			places, err := env.Search.Search(ctx, place)
			if err != nil {
				return env.localize(err)
			}
			if len(places) == 0 {
				return eris.New(env.Messages.Text(messages.NoResults))
			}
			chosen, err := pickPlace(places, pick)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, chosen.DisplayName)
			lat, lon = chosen.Lat, chosen.Lon
		case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon"):
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return eris.New(env.Messages.Text(messages.InvalidCoords))
			}
		default:
			return eris.New("either --place or both --lat and --lon are required")
		}

		fmt.Fprintln(os.Stderr, env.Messages.Text(messages.Searching))
		elements, err := env.Overpass.Objects(ctx, lat, lon, progress(os.Stderr))
		if err != nil {
			return env.localize(err)
		}
		if len(elements) == 0 {
			fmt.Fprintln(os.Stderr, env.Messages.Text(messages.NothingFound))
			return nil
		}

		objects := export.Summaries(elements)
		if xlsxPath != "" {
			if err := export.SaveTagTable(xlsxPath, objects); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s: %s\n", env.Messages.Text(messages.Downloaded), xlsxPath)
		}

		switch format {
		case "json":
			return export.WriteObjectsJSON(os.Stdout, objects)
		case "yaml":
			return export.WriteObjectsYAML(os.Stdout, objects)
		default:
			return export.WriteObjectsTable(os.Stdout, objects)
		}
	},
}

func init() {
	objectsCmd.Flags().Float64("lat", 0, "latitude of the point")
	objectsCmd.Flags().Float64("lon", 0, "longitude of the point")
	objectsCmd.Flags().String("place", "", "look up the point by place name instead of --lat/--lon")
	objectsCmd.Flags().Int("pick", 1, "which search result to use with --place (1-based)")
	objectsCmd.Flags().String("format", "table", "output format: table, json or yaml")
	objectsCmd.Flags().String("xlsx", "", "also write a tag table to this .xlsx file")
	rootCmd.AddCommand(objectsCmd)
}
