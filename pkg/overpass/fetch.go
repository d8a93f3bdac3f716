package overpass

import "context"

// Objects lists the tagged objects around a point using the quick-query
// budget.
func (c *Client) Objects(ctx context.Context, lat, lon float64, n Notifier) ([]Element, error) {
	resp, err := c.Execute(ctx, Request{
		Query:    ObjectsAroundQuery(lat, lon),
		MaxWait:  c.maxWaitSearch,
		Notifier: n,
	})
	if err != nil {
		return nil, err
	}
	return resp.Tagged(), nil
}

// RelationPreview fetches a relation's center and bounding box using the
// geometry budget. The returned element is nil if the server did not report
// the relation.
func (c *Client) RelationPreview(ctx context.Context, id int64, n Notifier) (*Element, error) {
	resp, err := c.Execute(ctx, Request{
		Query:    RelationPreviewQuery(id),
		MaxWait:  c.maxWaitGeometry,
		Notifier: n,
	})
	if err != nil {
		return nil, err
	}
	el, ok := resp.Find(TypeRelation, id)
	if !ok {
		return nil, nil
	}
	return &el, nil
}

// Geometry fetches the full geometry of t using the geometry budget.
func (c *Client) Geometry(ctx context.Context, t Target, n Notifier) (*Response, error) {
	return c.Execute(ctx, Request{
		Query:    GeometryQuery(t.Type, t.ID),
		MaxWait:  c.maxWaitGeometry,
		Notifier: n,
	})
}
