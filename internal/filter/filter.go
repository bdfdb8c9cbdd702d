// Package filter turns raw tweets into normalized token streams. The pieces
// (link and emoticon substitution, stopword removal, stemming, accent
// folding) can be used on their own; TweetFilter chains them around the
// tokenizer and phrase replacement.
package filter

import "strings"

// Filter splits and filters one input string.
type Filter interface {
	SplitFilter(input string) []string
}

// Join renders tokens as a single space-separated string.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// FilterString runs f and joins the resulting tokens.
func FilterString(f Filter, input string) string {
	return Join(f.SplitFilter(input))
}

// FilterAll runs f over every input and joins each result.
func FilterAll(f Filter, inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, FilterString(f, in))
	}
	return out
}

// SplitAll runs f over every input.
func SplitAll(f Filter, inputs []string) [][]string {
	out := make([][]string, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, f.SplitFilter(in))
	}
	return out
}
