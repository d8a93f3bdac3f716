package overpass

import (
	"regexp"
	"strings"
)

// maxErrorRunes bounds the server text surfaced in a HardError.
const maxErrorRunes = 200

// markupPattern matches opening and closing tags, including a tag cut off at
// the end of the body.
var markupPattern = regexp.MustCompile(`</?[^>]+(>|$)`)

// cleanErrorText removes markup from a response body, trims it and cuts it to
// maxErrorRunes characters.
func cleanErrorText(body string) string {
	clean := strings.TrimSpace(markupPattern.ReplaceAllString(body, ""))
	runes := []rune(clean)
	if len(runes) > maxErrorRunes {
		return string(runes[:maxErrorRunes])
	}
	return clean
}

// snippet returns a short prefix of body for logging.
func snippet(body string) string {
	const n = 120
	runes := []rune(body)
	if len(runes) > n {
		return string(runes[:n])
	}
	return body
}
