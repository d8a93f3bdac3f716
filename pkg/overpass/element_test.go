package overpass

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"german name first", map[string]string{"name": "Warsaw", "name:de": "Warschau", "name:en": "Warsaw"}, "Warschau"},
		{"english before plain", map[string]string{"name": "Praha", "name:en": "Prague"}, "Prague"},
		{"plain name", map[string]string{"name": "Tegel", "highway": "primary"}, "Tegel"},
		{"highway", map[string]string{"highway": "residential", "amenity": "bench"}, "residential"},
		{"amenity", map[string]string{"amenity": "bench", "building": "yes"}, "bench"},
		{"building", map[string]string{"building": "yes", "boundary": "administrative"}, "yes"},
		{"boundary", map[string]string{"boundary": "administrative"}, "administrative"},
		{"empty values skipped", map[string]string{"name:de": "", "name": "Spree"}, "Spree"},
		{"fallback id", map[string]string{"surface": "asphalt"}, "ID: 42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := Element{Type: TypeWay, ID: 42, Tags: tt.tags}
			assert.Equal(t, tt.want, el.DisplayName())
		})
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name     string
		typ      ElementType
		id       int64
		wantType ElementType
		wantID   int64
		wantErr  bool
	}{
		{"relation area", TypeArea, 3600062422, TypeRelation, 62422, false},
		{"relation area lower bound", TypeArea, 3600000000, TypeRelation, 0, false},
		{"way area", TypeArea, 2400004711, TypeWay, 4711, false},
		{"unresolvable area", TypeArea, 1234, "", 0, true},
		{"way passes through", TypeWay, 99, TypeWay, 99, false},
		{"node passes through", TypeNode, 3600000001, TypeNode, 3600000001, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(tt.typ, tt.id)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnresolvableArea)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantID, got.ID)
			assert.Equal(t, tt.typ, got.SourceType)
			assert.Equal(t, tt.id, got.SourceID)
		})
	}
}

func TestBounds_LargeGeometry(t *testing.T) {
	assert.True(t, (&Bounds{MinLat: 47, MinLon: 5, MaxLat: 55, MaxLon: 15}).LargeGeometry())
	assert.True(t, (&Bounds{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}).LargeGeometry())
	assert.False(t, (&Bounds{MinLat: 52.3, MinLon: 13.0, MaxLat: 52.7, MaxLon: 13.8}).LargeGeometry())
	assert.False(t, (*Bounds)(nil).LargeGeometry())
}

func TestResponse_TaggedAndFind(t *testing.T) {
	raw := `{"version":0.6,"elements":[
		{"type":"node","id":1,"lat":52.5,"lon":13.4},
		{"type":"way","id":2,"tags":{"highway":"footway"},"center":{"lat":52.51,"lon":13.41}},
		{"type":"relation","id":3,"tags":{"name":"Berlin"},"bounds":{"minlat":52.3,"minlon":13.0,"maxlat":52.7,"maxlon":13.8}}
	]}`
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	tagged := resp.Tagged()
	require.Len(t, tagged, 2)
	assert.Equal(t, "way/2", tagged[0].Ref())
	assert.Equal(t, "relation/3", tagged[1].Ref())

	rel, ok := resp.Find(TypeRelation, 3)
	require.True(t, ok)
	require.NotNil(t, rel.Bounds)
	assert.InDelta(t, 0.32, rel.Bounds.AreaDeg2(), 1e-9)

	_, ok = resp.Find(TypeWay, 3)
	assert.False(t, ok)

	pos, ok := tagged[0].Position()
	require.True(t, ok)
	assert.Equal(t, Point{Lat: 52.51, Lon: 13.41}, pos)
}

func TestParseElementType(t *testing.T) {
	got, err := ParseElementType(" Relation ")
	require.NoError(t, err)
	assert.Equal(t, TypeRelation, got)

	_, err = ParseElementType("changeset")
	assert.Error(t, err)
}
