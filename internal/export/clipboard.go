package export

import (
	"github.com/atotto/clipboard"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrClipboardUnsupported is returned when no clipboard tool is available
// (xclip, xsel or wl-copy on Linux).
var ErrClipboardUnsupported = eris.New("export: clipboard not supported on this system")

// clipboardWrite is replaced in tests.
var clipboardWrite = func(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// CopyGeoJSON places fc, formatted as by MarshalGeoJSON, on the system
// clipboard.
func CopyGeoJSON(fc *geojson.FeatureCollection) error {
	data, err := MarshalGeoJSON(fc)
	if err != nil {
		return err
	}
	if err := clipboardWrite(string(data)); err != nil {
		return eris.Wrap(err, "export: copy to clipboard")
	}
	return nil
}
