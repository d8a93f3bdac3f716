package overpass

import (
	"fmt"
	"strconv"
)

// aroundRadiusMeters is the search radius for ObjectsAroundQuery.
const aroundRadiusMeters = 45

// maxSizeBytes is the server-side memory limit requested for geometry queries.
const maxSizeBytes = 134217728

// ObjectsAroundQuery lists tagged objects within a small radius of a point,
// together with the areas enclosing it. Results carry tags and centers only.
func ObjectsAroundQuery(lat, lon float64) string {
	la, lo := formatCoord(lat), formatCoord(lon)
	return fmt.Sprintf(
		"[out:json][timeout:60]; ( nwr(around:%d, %s, %s); is_in(%s, %s)->.a; nwr(pivot.a); ); out tags center;",
		aroundRadiusMeters, la, lo, la, lo,
	)
}

// RelationPreviewQuery fetches a relation's center and bounding box without
// its member geometry.
func RelationPreviewQuery(id int64) string {
	return fmt.Sprintf("[out:json][timeout:180][maxsize:%d]; relation(%d); out center bb;", maxSizeBytes, id)
}

// GeometryQuery fetches the full geometry of one node, way or relation.
func GeometryQuery(elemType ElementType, id int64) string {
	return fmt.Sprintf("[out:json][timeout:180][maxsize:%d]; %s(%d); out geom;", maxSizeBytes, elemType, id)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
