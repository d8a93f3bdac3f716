package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/geoquery/internal/messages"
	"github.com/sells-group/geoquery/pkg/nominatim"
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search places by name via Nominatim",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initQueryEnv("query")
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, env.Messages.Text(messages.SearchingPlace))
		places, err := env.Search.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return env.localize(err)
		}
		if len(places) == 0 {
			fmt.Fprintln(os.Stderr, env.Messages.Text(messages.NoResults))
			return nil
		}

		formatPlaces(os.Stdout, places)
		return nil
	},
}

func formatPlaces(out io.Writer, places []nominatim.Place) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tLAT\tLON\tOSM")
	for i, p := range places {
		osm := "-"
		if p.OSMType != "" && p.OSMID != 0 {
			osm = fmt.Sprintf("%s/%d", p.OSMType, p.OSMID)
		}
		fmt.Fprintf(w, "%d\t%s\t%.6f\t%.6f\t%s\n", i+1, p.DisplayName, p.Lat, p.Lon, osm)
	}
	_ = w.Flush()
}

// pickPlace returns the n-th (1-based) place.
func pickPlace(places []nominatim.Place, n int) (nominatim.Place, error) {
	if n < 1 || n > len(places) {
		return nominatim.Place{}, fmt.Errorf("pick %d out of range (1-%d)", n, len(places))
	}
	return places[n-1], nil
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
