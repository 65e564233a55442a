package util

import (
	"strings"
	"unicode"
)

// CamelCase normalizes a free-form name into a camelCase identifier by
// splitting on alphanumeric boundaries: "Physics Tutor v2" -> "physicsTutorV2".
// Existing upper-case boundaries inside a word are preserved.
func CamelCase(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	for i, word := range words {
		runes := []rune(word)
		if i == 0 {
			runes[0] = unicode.ToLower(runes[0])
		} else {
			runes[0] = unicode.ToUpper(runes[0])
		}
		b.WriteString(string(runes))
	}

	return b.String()
}
