// Package messages holds the user-facing texts of geoquery. German is the
// default language; English is available for every key.
package messages

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a user-facing message.
type Key string

// Message keys.
const (
	Timeout           Key = "timeout"
	Canceled          Key = "canceled"
	// ConnectionWait and BusyWait take the wait in whole seconds as a string.
	ConnectionWait    Key = "connection-wait"
	BusyWait          Key = "busy-wait"
	ServerError       Key = "server-error"
	SearchRateLimited Key = "search-rate-limited"
	SearchFetchError  Key = "search-fetch-error"
	SearchEmptyQuery  Key = "search-empty-query"
	SearchingPlace    Key = "searching-place"
	NoResults         Key = "no-results"
	InvalidCoords     Key = "invalid-coords"
	Searching         Key = "searching"
	NothingFound      Key = "nothing-found"
	UnresolvableArea  Key = "unresolvable-area"
	NoGeometry        Key = "no-geometry"
	LargeGeometry     Key = "large-geometry"
	RequestingData    Key = "requesting-data"
	Copied            Key = "copied"
	Downloaded        Key = "downloaded"
	ExportError       Key = "export-error"
	EmptyQuery        Key = "empty-query"
	UnknownError      Key = "unknown-error"
)

var texts = map[Key][2]string{
	// {German, English}
	Timeout:           {"Die Abfrage dauert zu lange und wurde abgebrochen.", "The query is taking too long and was aborted."},
	Canceled:          {"Die Abfrage wurde abgebrochen.", "The query was canceled."},
	ConnectionWait:    {"Verbindung unterbrochen. Warte %ss...", "Connection interrupted. Waiting %ss..."},
	BusyWait:          {"Server beschäftigt. Warte %ss...", "Server busy. Waiting %ss..."},
	ServerError:       {"Server-Fehler:\n%s", "Server error:\n%s"},
	SearchRateLimited: {"Nominatim ist ausgelastet. Bitte versuche es gleich erneut.", "Nominatim is overloaded. Please try again shortly."},
	SearchFetchError:  {"Fehler beim Abruf der Suche.", "Failed to fetch search results."},
	SearchEmptyQuery:  {"Bitte gib einen Ort für die Suche ein.", "Please enter a place to search for."},
	SearchingPlace:    {"Suche Ort...", "Searching place..."},
	NoResults:         {"Kein Treffer gefunden. Bitte versuche eine präzisere Suche.", "No match found. Please try a more precise search."},
	InvalidCoords:     {"Ungültige Koordinaten aus der Suche erhalten.", "Received invalid coordinates from the search."},
	Searching:         {"Suche...", "Searching..."},
	NothingFound:      {"Nichts gefunden.", "Nothing found."},
	UnresolvableArea:  {"Area kann nicht auf Way/Relation zurückgeführt werden.", "Area cannot be traced back to a way or relation."},
	NoGeometry:        {"Keine Geometrie gefunden.", "No geometry found."},
	LargeGeometry:     {"Große Geometrie wird geladen...", "Loading large geometry..."},
	RequestingData:    {"Fordere Daten an...", "Requesting data..."},
	Copied:            {"Kopiert!", "Copied!"},
	Downloaded:        {"Download OK", "Download OK"},
	ExportError:       {"Export-Fehler", "Export error"},
	EmptyQuery:        {"Die Abfrage ist leer.", "The query is empty."},
	UnknownError:      {"Unbekannter Fehler.", "Unknown error."},
}

var cat = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.German))
	for key, t := range texts {
		// SetString only fails on malformed messages; the table above is static.
		_ = b.SetString(language.German, string(key), t[0])
		_ = b.SetString(language.English, string(key), t[1])
	}
	return b
}

// Printer renders messages in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a Printer for the given BCP 47 language ("de", "en", "en-US").
// Unknown or unsupported languages fall back to German.
func New(lang string) *Printer {
	tag := language.German
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			matcher := language.NewMatcher(cat.Languages())
			_, idx, conf := matcher.Match(parsed)
			if conf != language.No {
				tag = cat.Languages()[idx]
			}
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Language returns the language the printer renders in.
func (p *Printer) Language() language.Tag { return p.tag }

// Text renders the message for key with the given arguments.
func (p *Printer) Text(key Key, args ...any) string {
	return p.p.Sprintf(string(key), args...)
}

// Localizer is implemented by errors that know their user-facing message.
type Localizer interface {
	Localize(p *Printer) string
}

// Describe returns the user-facing message for err. Errors implementing
// Localizer anywhere in their chain render themselves; anything else falls
// back to the generic unknown-error text.
func (p *Printer) Describe(err error) string {
	if err == nil {
		return ""
	}
	var loc Localizer
	if errors.As(err, &loc) {
		if msg := strings.TrimSpace(loc.Localize(p)); msg != "" {
			return msg
		}
	}
	return p.Text(UnknownError)
}
