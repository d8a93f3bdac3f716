// Package export writes fetched OSM data to files, the clipboard and
// terminal-friendly formats.
package export

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrEmptyCollection is returned when there is nothing to export.
var ErrEmptyCollection = eris.New("export: feature collection is empty")

// FileName returns "<type>_<id>.geojson" for the first feature of fc.
func FileName(fc *geojson.FeatureCollection) (string, error) {
	if fc == nil || len(fc.Features) == 0 {
		return "", ErrEmptyCollection
	}
	return strings.Replace(fc.Features[0].ID, "/", "_", 1) + ".geojson", nil
}

// MarshalGeoJSON renders fc as GeoJSON indented with two spaces.
func MarshalGeoJSON(fc *geojson.FeatureCollection) ([]byte, error) {
	if fc == nil {
		return nil, ErrEmptyCollection
	}
	raw, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "export: marshal geojson")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, eris.Wrap(err, "export: indent geojson")
	}
	return buf.Bytes(), nil
}

// WriteGeoJSON writes fc to w.
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := MarshalGeoJSON(fc)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}

// SaveGeoJSON writes fc to path. If path is a directory the file is named
// after the first feature. The written path is returned.
func SaveGeoJSON(path string, fc *geojson.FeatureCollection) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		name, err := FileName(fc)
		if err != nil {
			return "", err
		}
		path = filepath.Join(path, name)
	}
	data, err := MarshalGeoJSON(fc)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "export: write %s", path)
	}
	return path, nil
}
