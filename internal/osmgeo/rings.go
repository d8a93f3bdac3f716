package osmgeo

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/geoquery/pkg/overpass"
)

// multiPolygon assembles the outer and inner member ways of a relation into
// closed rings and nests each inner ring in the outer ring containing it.
func multiPolygon(el overpass.Element) (*geom.MultiPolygon, error) {
	var outerParts, innerParts [][]geom.Coord
	for _, m := range el.Members {
		if m.Type != overpass.TypeWay {
			continue
		}
		coords := pathCoords(m.Geometry)
		if len(coords) < 2 {
			continue
		}
		if m.Role == "inner" {
			innerParts = append(innerParts, coords)
		} else {
			outerParts = append(outerParts, coords)
		}
	}

	outers, dropped := joinRings(outerParts)
	inners, droppedInner := joinRings(innerParts)
	if dropped+droppedInner > 0 {
		zap.L().Debug("osmgeo: dropped unclosed ring segments",
			zap.Int64("relation", el.ID),
			zap.Int("outer", dropped),
			zap.Int("inner", droppedInner),
		)
	}
	if len(outers) == 0 {
		return nil, eris.Errorf("osmgeo: relation %d has no closed outer ring", el.ID)
	}

	holes := make([][][]geom.Coord, len(outers))
	for _, inner := range inners {
		for i, outer := range outers {
			if ringContains(outer, inner[0]) {
				holes[i] = append(holes[i], inner)
				break
			}
		}
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i, outer := range outers {
		rings := append([][]geom.Coord{outer}, holes[i]...)
		poly, err := geom.NewPolygon(geom.XY).SetCoords(rings)
		if err != nil {
			zap.L().Debug("osmgeo: skipping malformed polygon", zap.Int64("relation", el.ID), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("osmgeo: skipping malformed polygon", zap.Int64("relation", el.ID), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil, eris.Errorf("osmgeo: relation %d produced no polygon", el.ID)
	}
	return mp, nil
}

// joinRings chains way segments that share end points into closed rings.
// Segments that cannot be closed are counted and dropped.
func joinRings(parts [][]geom.Coord) (rings [][]geom.Coord, dropped int) {
	remaining := make([][]geom.Coord, len(parts))
	copy(remaining, parts)

	for len(remaining) > 0 {
		ring := append([]geom.Coord(nil), remaining[0]...)
		remaining = remaining[1:]

		for !isClosed(ring) {
			idx, next := -1, []geom.Coord(nil)
			first, last := ring[0], ring[len(ring)-1]
			for i, seg := range remaining {
				switch {
				case seg[0].Equal(geom.XY, last):
					next = append(ring, seg[1:]...)
				case seg[len(seg)-1].Equal(geom.XY, last):
					next = append(ring, reversed(seg)[1:]...)
				case seg[len(seg)-1].Equal(geom.XY, first):
					next = append(append([]geom.Coord(nil), seg...), ring[1:]...)
				case seg[0].Equal(geom.XY, first):
					next = append(reversed(seg), ring[1:]...)
				default:
					continue
				}
				idx = i
				break
			}
			if idx < 0 {
				break
			}
			ring = next
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}

		if isClosed(ring) {
			rings = append(rings, ring)
		} else {
			dropped++
		}
	}
	return rings, dropped
}

func reversed(coords []geom.Coord) []geom.Coord {
	out := make([]geom.Coord, len(coords))
	for i, c := range coords {
		out[len(coords)-1-i] = c
	}
	return out
}

// ringContains reports whether p lies inside ring (even-odd rule).
func ringContains(ring []geom.Coord, p geom.Coord) bool {
	inside := false
	x, y := p[0], p[1]
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
