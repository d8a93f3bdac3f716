package export

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Shapefile attribute layout.
const (
	fieldOSMID = iota
	fieldName
)

var shapeFields = []shp.Field{
	shp.StringField("OSM_ID", 32),
	shp.StringField("NAME", 254),
}

// shapeGroup collects the shapes of one shapefile geometry type.
type shapeGroup struct {
	suffix string
	shapes []shp.Shape
	ids    []string
	names  []string
}

// SaveShapefile writes fc as ESRI shapefiles. A shapefile holds a single
// geometry type, so mixed collections are split into "<base>_points",
// "<base>_lines" and "<base>_polygons". The written .shp paths are returned.
func SaveShapefile(path string, fc *geojson.FeatureCollection) ([]string, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, ErrEmptyCollection
	}

	groups := map[shp.ShapeType]*shapeGroup{
		shp.POINT:      {suffix: "_points"},
		shp.MULTIPOINT: {suffix: "_multipoints"},
		shp.POLYLINE:   {suffix: "_lines"},
		shp.POLYGON:    {suffix: "_polygons"},
	}
	for _, f := range fc.Features {
		shapeType, shape, ok := toShape(f.Geometry)
		if !ok {
			zap.L().Debug("export: skipping feature without shapefile geometry", zap.String("id", f.ID))
			continue
		}
		g := groups[shapeType]
		g.shapes = append(g.shapes, shape)
		g.ids = append(g.ids, f.ID)
		g.names = append(g.names, featureName(f))
	}

	var used []shp.ShapeType
	for _, t := range []shp.ShapeType{shp.POINT, shp.MULTIPOINT, shp.POLYLINE, shp.POLYGON} {
		if len(groups[t].shapes) > 0 {
			used = append(used, t)
		}
	}
	if len(used) == 0 {
		return nil, ErrEmptyCollection
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	written := make([]string, 0, len(used))
	for _, t := range used {
		g := groups[t]
		out := base + ".shp"
		if len(used) > 1 {
			out = base + g.suffix + ".shp"
		}
		if err := writeShapefile(out, t, g); err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}

func writeShapefile(path string, t shp.ShapeType, g *shapeGroup) error {
	w, err := shp.Create(path, t)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	err = fillShapefile(w, g)
	w.Close()

	// go-shp v0.1.1 names the attribute table "<base>dbf" without the dot.
	base := strings.TrimSuffix(path, ".shp")
	if _, statErr := os.Stat(base + "dbf"); statErr == nil {
		if renameErr := os.Rename(base+"dbf", base+".dbf"); renameErr != nil && err == nil {
			err = eris.Wrap(renameErr, "export: move dbf")
		}
	}
	return err
}

func fillShapefile(w *shp.Writer, g *shapeGroup) error {
	if err := w.SetFields(shapeFields); err != nil {
		return eris.Wrap(err, "export: shapefile fields")
	}
	for i, shape := range g.shapes {
		row := int(w.Write(shape))
		if err := w.WriteAttribute(row, fieldOSMID, truncateBytes(g.ids[i], int(shapeFields[fieldOSMID].Size))); err != nil {
			return eris.Wrapf(err, "export: shapefile attribute %s", g.ids[i])
		}
		if err := w.WriteAttribute(row, fieldName, truncateBytes(g.names[i], int(shapeFields[fieldName].Size))); err != nil {
			return eris.Wrapf(err, "export: shapefile attribute %s", g.ids[i])
		}
	}
	return nil
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func featureName(f *geojson.Feature) string {
	for _, k := range []string{"name:de", "name:en", "name"} {
		if v, ok := f.Properties[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// toShape converts a go-geom geometry to its shapefile form. Polygon rings
// are written clockwise for shells and counter-clockwise for holes.
func toShape(g geom.T) (shp.ShapeType, shp.Shape, bool) {
	switch g := g.(type) {
	case *geom.Point:
		return shp.POINT, &shp.Point{X: g.X(), Y: g.Y()}, true

	case *geom.MultiPoint:
		points := make([]shp.Point, 0, g.NumPoints())
		for i := 0; i < g.NumPoints(); i++ {
			p := g.Point(i)
			points = append(points, shp.Point{X: p.X(), Y: p.Y()})
		}
		if len(points) == 0 {
			return 0, nil, false
		}
		return shp.MULTIPOINT, &shp.MultiPoint{
			Box:       shp.BBoxFromPoints(points),
			NumPoints: int32(len(points)),
			Points:    points,
		}, true

	case *geom.LineString:
		return shp.POLYLINE, shp.NewPolyLine([][]shp.Point{linePoints(g.Coords())}), true

	case *geom.MultiLineString:
		parts := make([][]shp.Point, 0, g.NumLineStrings())
		for i := 0; i < g.NumLineStrings(); i++ {
			parts = append(parts, linePoints(g.LineString(i).Coords()))
		}
		if len(parts) == 0 {
			return 0, nil, false
		}
		return shp.POLYLINE, shp.NewPolyLine(parts), true

	case *geom.Polygon:
		parts := polygonParts(g)
		if len(parts) == 0 {
			return 0, nil, false
		}
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		return shp.POLYGON, &poly, true

	case *geom.MultiPolygon:
		var parts [][]shp.Point
		for i := 0; i < g.NumPolygons(); i++ {
			parts = append(parts, polygonParts(g.Polygon(i))...)
		}
		if len(parts) == 0 {
			return 0, nil, false
		}
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		return shp.POLYGON, &poly, true

	default:
		return 0, nil, false
	}
}

func polygonParts(p *geom.Polygon) [][]shp.Point {
	parts := make([][]shp.Point, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		// Ring 0 is the shell.
		parts = append(parts, ringPoints(p.LinearRing(i).Coords(), i == 0))
	}
	return parts
}

func linePoints(coords []geom.Coord) []shp.Point {
	points := make([]shp.Point, len(coords))
	for i, c := range coords {
		points[i] = shp.Point{X: c[0], Y: c[1]}
	}
	return points
}

// ringPoints converts a ring, reversing it if needed so that it runs
// clockwise when clockwise is set and counter-clockwise otherwise.
func ringPoints(coords []geom.Coord, clockwise bool) []shp.Point {
	points := linePoints(coords)
	if isRing(points) && (signedArea(points) < 0) != clockwise {
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
	}
	return points
}

func isRing(points []shp.Point) bool {
	return len(points) >= 4 && points[0] == points[len(points)-1]
}

// signedArea is positive for counter-clockwise rings.
func signedArea(points []shp.Point) float64 {
	var sum float64
	for i := 0; i < len(points)-1; i++ {
		sum += points[i].X*points[i+1].Y - points[i+1].X*points[i].Y
	}
	return sum / 2
}
