package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geoquery/internal/osmgeo"
	"github.com/sells-group/geoquery/pkg/overpass"
)

var collectCmd = &cobra.Command{
	Use:   "collect <type/id>...",
	Short: "Fetch several geometries into one FeatureCollection",
	Long:  "Fetches the geometry of each element (e.g. way/123 relation/62422) and merges them into one FeatureCollection, in argument order.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs := make([]elementRef, 0, len(args))
		for _, arg := range args {
			ref, err := parseElementRef(arg)
			if err != nil {
				return err
			}
			refs = append(refs, ref)
		}

		env, err := initQueryEnv("query")
		if err != nil {
			return err
		}

		results := make([]*geojson.FeatureCollection, len(refs))
		g, gctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Collect.Concurrency)

		for i, ref := range refs {
			g.Go(func() error {
				n := progress(os.Stderr)
				prefixed := overpass.NotifierFunc(func(message string) {
					n.Notify(ref.String() + ": " + message)
				})
				fc, _, err := env.Loader.Load(gctx, ref.Type, ref.ID, prefixed)
				if err != nil {
					zap.L().Warn("collect: element failed",
						zap.String("element", ref.String()),
						zap.Error(err),
					)
					return fmt.Errorf("%s: %w", ref, env.localize(err))
				}
				results[i] = fc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		merged := osmgeo.Merge(results...)
		zap.L().Info("collect: done", zap.Int("features", len(merged.Features)))
		return writeFeatures(cmd, env, merged)
	},
}

// elementRef is a "type/id" command-line argument.
type elementRef struct {
	Type overpass.ElementType
	ID   int64
}

func (r elementRef) String() string {
	return string(r.Type) + "/" + strconv.FormatInt(r.ID, 10)
}

func parseElementRef(s string) (elementRef, error) {
	typ, rawID, ok := strings.Cut(s, "/")
	if !ok {
		return elementRef{}, eris.Errorf("invalid element %q (want type/id)", s)
	}
	t, err := overpass.ParseElementType(typ)
	if err != nil {
		return elementRef{}, err
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return elementRef{}, eris.Errorf("invalid element id in %q", s)
	}
	return elementRef{Type: t, ID: id}, nil
}

func init() {
	addExportFlags(collectCmd)
	rootCmd.AddCommand(collectCmd)
}
