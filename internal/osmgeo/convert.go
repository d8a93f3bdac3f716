// Package osmgeo turns Overpass "out geom" elements into go-geom geometries
// and GeoJSON features.
package osmgeo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/geoquery/internal/messages"
	"github.com/sells-group/geoquery/pkg/overpass"
)

type noGeometryError struct{}

func (noGeometryError) Error() string { return "osmgeo: no geometry found" }

// Localize implements messages.Localizer.
func (noGeometryError) Localize(p *messages.Printer) string { return p.Text(messages.NoGeometry) }

// ErrNoGeometry is returned when the requested element is missing from the
// response or carries no usable coordinates.
var ErrNoGeometry error = noGeometryError{}

// areaKeys are tags that make a closed way an area.
var areaKeys = map[string]bool{
	"building": true, "landuse": true, "amenity": true, "leisure": true,
	"natural": true, "place": true, "shop": true, "tourism": true,
	"historic": true, "man_made": true, "military": true, "aeroway": true,
	"water": true, "landcover": true, "sport": true, "boundary": true,
	"office": true, "craft": true, "area:highway": true, "building:part": true,
}

// Geometry converts one element. Nodes become points, closed area-like ways
// polygons, other ways line strings. Multipolygon and boundary relations
// become multipolygons assembled from their member rings; other relations
// become multilinestrings of their way members.
func Geometry(el overpass.Element) (geom.T, error) {
	switch el.Type {
	case overpass.TypeNode:
		if el.Lat == nil || el.Lon == nil {
			return nil, ErrNoGeometry
		}
		return geom.NewPointFlat(geom.XY, []float64{*el.Lon, *el.Lat}).SetSRID(4326), nil

	case overpass.TypeWay:
		coords := pathCoords(el.Geometry)
		if len(coords) < 2 {
			return nil, ErrNoGeometry
		}
		if isClosed(coords) && isArea(el.Tags) {
			return geom.NewPolygonFlat(geom.XY, flatCoords(coords), []int{len(coords) * 2}).SetSRID(4326), nil
		}
		return geom.NewLineStringFlat(geom.XY, flatCoords(coords)).SetSRID(4326), nil

	case overpass.TypeRelation:
		return relationGeometry(el)

	default:
		return nil, eris.Errorf("osmgeo: unsupported element type %q", el.Type)
	}
}

func relationGeometry(el overpass.Element) (geom.T, error) {
	switch el.Tags["type"] {
	case "multipolygon", "boundary":
		mp, err := multiPolygon(el)
		if err == nil {
			return mp, nil
		}
		zap.L().Debug("osmgeo: relation rings did not close, falling back to lines",
			zap.Int64("relation", el.ID), zap.Error(err))
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(4326)
	mpt := geom.NewMultiPoint(geom.XY).SetSRID(4326)
	for _, m := range el.Members {
		switch m.Type {
		case overpass.TypeWay:
			coords := pathCoords(m.Geometry)
			if len(coords) < 2 {
				continue
			}
			if err := mls.Push(geom.NewLineStringFlat(geom.XY, flatCoords(coords))); err != nil {
				zap.L().Debug("osmgeo: skipping malformed member", zap.Int64("ref", m.Ref), zap.Error(err))
			}
		case overpass.TypeNode:
			if m.Lat == nil || m.Lon == nil {
				continue
			}
			if err := mpt.Push(geom.NewPointFlat(geom.XY, []float64{*m.Lon, *m.Lat})); err != nil {
				zap.L().Debug("osmgeo: skipping malformed member", zap.Int64("ref", m.Ref), zap.Error(err))
			}
		}
	}

	switch {
	case mls.NumLineStrings() > 0:
		return mls, nil
	case mpt.NumPoints() > 0:
		return mpt, nil
	default:
		return nil, ErrNoGeometry
	}
}

// Feature converts el into a GeoJSON feature with id "<type>/<id>" and the
// element's tags as properties.
func Feature(el overpass.Element) (*geojson.Feature, error) {
	g, err := Geometry(el)
	if err != nil {
		return nil, err
	}
	props := make(map[string]interface{}, len(el.Tags))
	for k, v := range el.Tags {
		props[k] = v
	}
	return &geojson.Feature{
		ID:         el.Ref(),
		Geometry:   g,
		Properties: props,
	}, nil
}

// Features builds the feature collection for target from resp. Only the
// target element itself is kept; ErrNoGeometry is returned if it is absent
// or has no coordinates.
func Features(resp *overpass.Response, target overpass.Target) (*geojson.FeatureCollection, error) {
	el, ok := resp.Find(target.Type, target.ID)
	if !ok {
		return nil, ErrNoGeometry
	}
	f, err := Feature(el)
	if err != nil {
		return nil, err
	}
	return &geojson.FeatureCollection{Features: []*geojson.Feature{f}}, nil
}

// Merge concatenates the features of several collections.
func Merge(collections ...*geojson.FeatureCollection) *geojson.FeatureCollection {
	out := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, fc := range collections {
		if fc == nil {
			continue
		}
		out.Features = append(out.Features, fc.Features...)
	}
	return out
}

func isArea(tags map[string]string) bool {
	switch tags["area"] {
	case "yes":
		return true
	case "no":
		return false
	}
	for k := range tags {
		if areaKeys[k] {
			return true
		}
	}
	return false
}

// pathCoords converts Overpass points to lon/lat coordinates, skipping the
// null entries Overpass emits for nodes it could not resolve.
func pathCoords(points []*overpass.Point) []geom.Coord {
	coords := make([]geom.Coord, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		coords = append(coords, geom.Coord{p.Lon, p.Lat})
	}
	return coords
}

func isClosed(coords []geom.Coord) bool {
	return len(coords) >= 4 && coords[0].Equal(geom.XY, coords[len(coords)-1])
}

// flatCoords converts a slice of Coord to flat coordinate pairs for go-geom.
func flatCoords(coords []geom.Coord) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
