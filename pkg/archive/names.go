package archive

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the form entry names are compared in: valid UTF-8
// (bytes that are not UTF-8 are read as Windows-1252), '/' as the only
// separator, Unicode NFC.
func NormalizeName(name string) string {
	if !utf8.ValidString(name) {
		if decoded, err := charmap.Windows1252.NewDecoder().String(name); err == nil {
			name = decoded
		}
	}
	name = strings.ReplaceAll(name, `\`, "/")
	return norm.NFC.String(name)
}
