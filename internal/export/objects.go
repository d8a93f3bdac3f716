package export

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/geoquery/pkg/overpass"
)

// ObjectSummary is the listing form of a tagged element.
type ObjectSummary struct {
	Type string            `json:"type" yaml:"type"`
	ID   int64             `json:"id" yaml:"id"`
	Name string            `json:"name" yaml:"name"`
	Lat  *float64          `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon  *float64          `json:"lon,omitempty" yaml:"lon,omitempty"`
	Tags map[string]string `json:"tags" yaml:"tags"`
}

// Summaries converts elements to listing rows, keeping their order.
func Summaries(elements []overpass.Element) []ObjectSummary {
	out := make([]ObjectSummary, 0, len(elements))
	for _, el := range elements {
		s := ObjectSummary{
			Type: string(el.Type),
			ID:   el.ID,
			Name: el.DisplayName(),
			Tags: el.Tags,
		}
		if pos, ok := el.Position(); ok {
			s.Lat, s.Lon = &pos.Lat, &pos.Lon
		}
		out = append(out, s)
	}
	return out
}

// WriteObjectsJSON writes the summaries as an indented JSON array.
func WriteObjectsJSON(w io.Writer, objects []ObjectSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(objects); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

// WriteObjectsYAML writes the summaries as a YAML sequence.
func WriteObjectsYAML(w io.Writer, objects []ObjectSummary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(objects); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "export: close yaml encoder")
	}
	return nil
}

// tagSheetName is the worksheet written by SaveTagTable.
const tagSheetName = "Objekte"

// SaveTagTable writes one row per object to an XLSX workbook. The fixed
// columns type, id, name, lat and lon are followed by one column per tag
// key found in any object, sorted by key.
func SaveTagTable(path string, objects []ObjectSummary) error {
	keySet := make(map[string]struct{})
	for _, o := range objects {
		for k := range o.Tags {
			keySet[k] = struct{}{}
		}
	}
	keys := slices.Sorted(maps.Keys(keySet))

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(tagSheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range append([]string{"type", "id", "name", "lat", "lon"}, keys...) {
		header.AddCell().SetString(h)
	}

	for _, o := range objects {
		row := sheet.AddRow()
		row.AddCell().SetString(o.Type)
		row.AddCell().SetInt64(o.ID)
		row.AddCell().SetString(o.Name)
		addOptionalFloat(row, o.Lat)
		addOptionalFloat(row, o.Lon)
		for _, k := range keys {
			row.AddCell().SetString(o.Tags[k])
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addOptionalFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v == nil {
		cell.SetString("")
		return
	}
	cell.SetFloat(*v)
}

// WriteObjectsTable writes the summaries as an aligned text table.
func WriteObjectsTable(out io.Writer, objects []ObjectSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tTYPE\tID\tNAME\tLAT\tLON")
	for i, o := range objects {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n",
			i+1, strings.ToUpper(o.Type), o.ID, o.Name, formatCoord(o.Lat), formatCoord(o.Lon))
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "export: write table")
	}
	return nil
}

// formatCoord renders a coordinate for tables.
func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
