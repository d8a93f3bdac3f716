package osmgeo

import (
	"context"

	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/geoquery/internal/messages"
	"github.com/sells-group/geoquery/pkg/overpass"
)

// Source fetches relation previews and full geometries. *overpass.Client
// implements it.
type Source interface {
	RelationPreview(ctx context.Context, id int64, n overpass.Notifier) (*overpass.Element, error)
	Geometry(ctx context.Context, t overpass.Target, n overpass.Notifier) (*overpass.Response, error)
}

// Loader resolves an element to its geometry target and fetches its feature.
type Loader struct {
	Source   Source
	Messages *messages.Printer
}

// NewLoader creates a Loader.
func NewLoader(src Source, p *messages.Printer) *Loader {
	if p == nil {
		p = messages.New("")
	}
	return &Loader{Source: src, Messages: p}
}

// Load fetches the geometry of the element identified by elemType and id.
// Area ids are first mapped to their way or relation. Relations get a cheap
// bounding-box preview first; if it spans a large area the notifier is told
// before the full geometry is requested.
func (l *Loader) Load(ctx context.Context, elemType overpass.ElementType, id int64, n overpass.Notifier) (*geojson.FeatureCollection, overpass.Target, error) {
	if n == nil {
		n = overpass.NopNotifier{}
	}
	target, err := overpass.ResolveTarget(elemType, id)
	if err != nil {
		return nil, overpass.Target{}, err
	}

	if target.Type == overpass.TypeRelation {
		preview, err := l.Source.RelationPreview(ctx, target.ID, n)
		if err != nil {
			return nil, target, err
		}
		if preview != nil && preview.Bounds.LargeGeometry() {
			zap.L().Info("osmgeo: large relation",
				zap.Int64("relation", target.ID),
				zap.Float64("area_deg2", preview.Bounds.AreaDeg2()),
			)
			n.Notify(l.Messages.Text(messages.LargeGeometry))
		}
	}

	resp, err := l.Source.Geometry(ctx, target, n)
	if err != nil {
		return nil, target, err
	}
	fc, err := Features(resp, target)
	if err != nil {
		return nil, target, err
	}
	return fc, target, nil
}
