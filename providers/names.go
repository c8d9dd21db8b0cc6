package providers

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Typografische Ligaturen aus PDF-Extrakten, in Namen nie beabsichtigt.
var ligatures = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬆ", "st",
)

// CleanName bringt einen Namen aus einer Provider-Antwort in NFC-Form, löst
// Ligaturen auf und fasst Leerraum zu einzelnen Leerzeichen zusammen. Groß- und
// Kleinschreibung bleibt erhalten.
func CleanName(s string) string {
	s = ligatures.Replace(s)
	if normalized, _, err := transform.String(norm.NFC, s); err == nil {
		s = normalized
	}
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
