package filter

import (
	"strings"
	"unicode"
)

// SplitString removes links and splits the rest on anything that is not a
// letter. Words come back lower case.
func SplitString(input string) []string {
	input = strings.ToLower(RemoveLinks(input))
	return strings.FieldsFunc(input, func(r rune) bool { return !unicode.IsLetter(r) })
}

// FullSplit is SplitString followed by level 0 stopword removal and, when
// stem is set, stemming.
func FullSplit(input string, stop *StopWords, stem bool) []string {
	words := stop.Remove(SplitString(input), 0)
	if stem {
		words = StemAll(words)
	}
	return words
}
