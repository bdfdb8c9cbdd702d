package filter

import (
	"github.com/kljensen/snowball/english"

	"github.com/example/go-tweetnorm/internal/tokenizer"
)

// Stem returns the Porter2 stem of word.
func Stem(word string) string {
	return english.Stem(word, true)
}

// StemAll stems every token except meta tokens. The result is a new slice.
func StemAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if tokenizer.IsMeta(tok) {
			out[i] = tok
			continue
		}
		out[i] = Stem(tok)
	}
	return out
}
