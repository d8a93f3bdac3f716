package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geoquery/internal/config"
	"github.com/sells-group/geoquery/internal/messages"
	"github.com/sells-group/geoquery/internal/osmgeo"
	"github.com/sells-group/geoquery/pkg/nominatim"
	"github.com/sells-group/geoquery/pkg/overpass"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"search", "objects", "geometry", "collect", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "geoquery", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestObjectsCommand_Flags(t *testing.T) {
	for _, name := range []string{"lat", "lon", "place", "pick", "format", "xlsx"} {
		assert.NotNil(t, objectsCmd.Flags().Lookup(name), "objects should have --%s flag", name)
	}
	assert.Equal(t, "table", objectsCmd.Flags().Lookup("format").DefValue)
	assert.Equal(t, "1", objectsCmd.Flags().Lookup("pick").DefValue)
}

func TestExportFlags(t *testing.T) {
	for _, name := range []string{"out", "copy", "shp"} {
		assert.NotNil(t, geometryCmd.Flags().Lookup(name), "geometry should have --%s flag", name)
		assert.NotNil(t, collectCmd.Flags().Lookup(name), "collect should have --%s flag", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestParseElementRef(t *testing.T) {
	ref, err := parseElementRef("relation/62422")
	require.NoError(t, err)
	assert.Equal(t, overpass.TypeRelation, ref.Type)
	assert.Equal(t, int64(62422), ref.ID)
	assert.Equal(t, "relation/62422", ref.String())

	ref, err = parseElementRef("Way/7")
	require.NoError(t, err)
	assert.Equal(t, overpass.TypeWay, ref.Type)

	for _, bad := range []string{"way", "way/", "way/abc", "way/-1", "shape/1", "/1"} {
		_, err := parseElementRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestPickPlace(t *testing.T) {
	places := []nominatim.Place{{DisplayName: "A"}, {DisplayName: "B"}}

	p, err := pickPlace(places, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", p.DisplayName)

	_, err = pickPlace(places, 0)
	assert.Error(t, err)
	_, err = pickPlace(places, 3)
	assert.Error(t, err)
}

func TestNewQueryEnv(t *testing.T) {
	c := &config.Config{
		Overpass: config.OverpassConfig{
			Endpoint:         "http://localhost/api/interpreter",
			RequestTimeoutMs: 1000,
			MaxWaitSearchMs:  2000,
			MaxWaitGeomMs:    3000,
			RetryBaseDelayMs: 100,
			RetryMaxDelayMs:  500,
		},
		Nominatim: config.NominatimConfig{BaseURL: "http://localhost", Limit: 5, RatePerSec: 1, TimeoutSecs: 5},
		Messages:  config.MessagesConfig{Language: "en"},
	}

	env := newQueryEnv(c)
	require.NotNil(t, env.Overpass)
	require.NotNil(t, env.Search)
	require.NotNil(t, env.Loader)
	assert.Equal(t, "en", env.Messages.Language().String())
}

func TestLocalize(t *testing.T) {
	env := &queryEnv{Messages: messages.New("de")}

	err := env.localize(overpass.ErrTimeoutExceeded)
	assert.Equal(t, "Die Abfrage dauert zu lange und wurde abgebrochen.", err.Error())
	assert.ErrorIs(t, err, overpass.ErrTimeoutExceeded)

	err = env.localize(osmgeo.ErrNoGeometry)
	assert.Equal(t, "Keine Geometrie gefunden.", err.Error())

	plain := assert.AnError
	assert.Equal(t, plain, env.localize(plain))
	assert.NoError(t, env.localize(nil))
}

func TestProgress(t *testing.T) {
	var buf strings.Builder
	progress(&buf).Notify("Server beschäftigt. Warte 3s...")
	assert.Equal(t, "Server beschäftigt. Warte 3s...\n", buf.String())
}
