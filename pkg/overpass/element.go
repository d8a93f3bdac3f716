package overpass

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geoquery/internal/messages"
)

// ElementType is an OSM element kind as reported by Overpass.
type ElementType string

// Element types.
const (
	TypeNode     ElementType = "node"
	TypeWay      ElementType = "way"
	TypeRelation ElementType = "relation"
	TypeArea     ElementType = "area"
)

// ParseElementType validates an element type name.
func ParseElementType(s string) (ElementType, error) {
	switch t := ElementType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeNode, TypeWay, TypeRelation, TypeArea:
		return t, nil
	default:
		return "", eris.Errorf("overpass: unknown element type %q", s)
	}
}

// Area id offsets used by Overpass to derive area ids from ways and relations.
const (
	relationAreaOffset int64 = 3600000000
	wayAreaOffset      int64 = 2400000000
)

// Response is an Overpass JSON document.
type Response struct {
	Version   float64   `json:"version"`
	Generator string    `json:"generator"`
	Remark    string    `json:"remark,omitempty"`
	Elements  []Element `json:"elements"`
}

// Tagged returns the elements that carry at least one tag, in order.
func (r *Response) Tagged() []Element {
	if r == nil {
		return nil
	}
	out := make([]Element, 0, len(r.Elements))
	for _, el := range r.Elements {
		if len(el.Tags) > 0 {
			out = append(out, el)
		}
	}
	return out
}

// Find returns the element with the given type and id.
func (r *Response) Find(elemType ElementType, id int64) (Element, bool) {
	if r == nil {
		return Element{}, false
	}
	for _, el := range r.Elements {
		if el.Type == elemType && el.ID == id {
			return el, true
		}
	}
	return Element{}, false
}

// Element is one node, way, relation or area of a response.
type Element struct {
	Type     ElementType       `json:"type"`
	ID       int64             `json:"id"`
	Lat      *float64          `json:"lat,omitempty"`
	Lon      *float64          `json:"lon,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	Center   *Point            `json:"center,omitempty"`
	Bounds   *Bounds           `json:"bounds,omitempty"`
	Nodes    []int64           `json:"nodes,omitempty"`
	Geometry []*Point          `json:"geometry,omitempty"`
	Members  []Member          `json:"members,omitempty"`
}

// Member is a relation member. With "out geom", way members carry their
// geometry and node members their position.
type Member struct {
	Type     ElementType `json:"type"`
	Ref      int64       `json:"ref"`
	Role     string      `json:"role"`
	Lat      *float64    `json:"lat,omitempty"`
	Lon      *float64    `json:"lon,omitempty"`
	Geometry []*Point    `json:"geometry,omitempty"`
}

// Point is a WGS84 coordinate. Geometry arrays may contain null entries for
// nodes outside the requested bounding box, hence the pointer slices above.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is the server-supplied bounding box of an element.
type Bounds struct {
	MinLat float64 `json:"minlat"`
	MinLon float64 `json:"minlon"`
	MaxLat float64 `json:"maxlat"`
	MaxLon float64 `json:"maxlon"`
}

// largeGeometryDeg2 is the bounding-box area above which loading the full
// geometry is announced to the user.
const largeGeometryDeg2 = 1.0

// Valid reports whether all corners are finite.
func (b *Bounds) Valid() bool {
	if b == nil {
		return false
	}
	for _, v := range []float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AreaDeg2 returns lat span times lon span in square degrees.
func (b *Bounds) AreaDeg2() float64 {
	if !b.Valid() {
		return 0
	}
	return math.Abs(b.MaxLat-b.MinLat) * math.Abs(b.MaxLon-b.MinLon)
}

// LargeGeometry reports whether the box spans at least one square degree.
func (b *Bounds) LargeGeometry() bool {
	return b.Valid() && b.AreaDeg2() >= largeGeometryDeg2
}

// displayNameKeys are consulted in order by DisplayName.
var displayNameKeys = []string{"name:de", "name:en", "name", "highway", "amenity", "building", "boundary"}

// DisplayName returns the first non-empty of name:de, name:en, name, highway,
// amenity, building and boundary, or "ID: <id>".
func (e Element) DisplayName() string {
	for _, k := range displayNameKeys {
		if v := e.Tags[k]; v != "" {
			return v
		}
	}
	return "ID: " + strconv.FormatInt(e.ID, 10)
}

// Ref returns "<type>/<id>".
func (e Element) Ref() string {
	return string(e.Type) + "/" + strconv.FormatInt(e.ID, 10)
}

// Position returns the element's own coordinate for nodes, else its center.
func (e Element) Position() (Point, bool) {
	if e.Lat != nil && e.Lon != nil {
		return Point{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	if e.Center != nil {
		return *e.Center, true
	}
	return Point{}, false
}

// Target is an element that full geometry can be fetched for.
type Target struct {
	Type ElementType
	ID   int64

	// SourceType and SourceID record what the caller asked for, which differs
	// from Type and ID for areas.
	SourceType ElementType
	SourceID   int64
}

// Ref returns "<type>/<id>" of the resolved target.
func (t Target) Ref() string {
	return string(t.Type) + "/" + strconv.FormatInt(t.ID, 10)
}

// ErrUnresolvableArea is returned by ResolveTarget for area ids that map to
// neither a way nor a relation.
var ErrUnresolvableArea error = &queryError{msg: "overpass: area cannot be resolved to a way or relation", key: messages.UnresolvableArea}

// ResolveTarget maps an element to the way or relation carrying its geometry.
// Areas with id >= 3600000000 are relations, ids >= 2400000000 are ways; any
// other area id is unresolvable. Non-area types are returned unchanged.
func ResolveTarget(elemType ElementType, id int64) (Target, error) {
	t := Target{Type: elemType, ID: id, SourceType: elemType, SourceID: id}
	if elemType != TypeArea {
		return t, nil
	}
	switch {
	case id >= relationAreaOffset:
		t.Type, t.ID = TypeRelation, id-relationAreaOffset
	case id >= wayAreaOffset:
		t.Type, t.ID = TypeWay, id-wayAreaOffset
	default:
		return Target{}, ErrUnresolvableArea
	}
	return t, nil
}
