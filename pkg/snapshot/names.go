package snapshot

import (
	"strings"
	"unicode"
)

// CamelToDashes converts an in-memory field name such as "descriptionPrefix"
// to its document key "description-prefix".
func CamelToDashes(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DashesToCamel converts a document key such as "description-prefix" to the
// in-memory field name "descriptionPrefix". Every word is lowercased before
// the first letter of each word after the first is capitalized.
func DashesToCamel(s string) string {
	var b strings.Builder
	for i, word := range strings.Split(s, "-") {
		word = strings.ToLower(word)
		if i == 0 || word == "" {
			b.WriteString(word)
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
