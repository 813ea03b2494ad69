package achievement

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Identifier derives an enum variant name from a display title: the title is
// split on whitespace, the first character of every word is uppercased with
// full Unicode case mapping, and the words are joined with no separator.
//
//	Identifier("foo bar")   // "FooBar"
//	Identifier("straße 9")  // "Straße9"
//	Identifier("ßig")       // "SSig"
//
// Characters other than the first of each word are kept unchanged, so the
// result is not guaranteed to be a valid identifier in the target language.
func Identifier(title string) (identifier string) {
	// A Caser carries state between calls and is not safe to share.
	upper := cases.Upper(language.Und)

	var sb strings.Builder
	for _, word := range strings.Fields(title) {
		first, size := utf8.DecodeRuneInString(word)
		sb.WriteString(upper.String(string(first)))
		sb.WriteString(word[size:])
	}

	identifier = sb.String()
	return identifier
}
