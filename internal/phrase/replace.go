package phrase

import (
	"strings"

	"github.com/example/go-tweetnorm/internal/tokenizer"
)

// DefaultPlaceholder is substituted for detected place names.
var DefaultPlaceholder = tokenizer.MetaToken("location")

// Match is a stored phrase found in a token sequence.
type Match struct {
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Text   string `json:"text"`
}

// FirstMatch returns the leftmost position at which a stored phrase begins,
// with the longest phrase starting there.
func (t *Trie) FirstMatch(tokens []string) (Match, bool) {
	return t.nextMatch(tokens, 0, "")
}

// Matches returns the leftmost non-overlapping matches: after a match of
// length n at i the scan resumes at i+n. These are the spans ReplaceAll
// replaces. No replacement is performed.
func (t *Trie) Matches(tokens []string) []Match {
	var out []Match
	for i := 0; i < len(tokens); {
		m, ok := t.nextMatch(tokens, i, "")
		if !ok {
			break
		}
		out = append(out, m)
		i = m.Start + m.Length
	}
	return out
}

// nextMatch scans from position from for the leftmost match. A single token
// equal to skip never counts as a match.
func (t *Trie) nextMatch(tokens []string, from int, skip string) (Match, bool) {
	for i := from; i < len(tokens); i++ {
		n := t.LongestMatch(tokens, i)
		if n == 0 || (n == 1 && tokens[i] == skip) {
			continue
		}
		return Match{
			Start:  i,
			Length: n,
			Text:   strings.Join(tokens[i:i+n], " "),
		}, true
	}
	return Match{}, false
}

// ReplaceOnce replaces the leftmost match with placeholder. It returns a new
// slice, the replaced phrase text, and false when nothing matched. The input
// is never modified. A lone placeholder token is not replaced with itself,
// which keeps ReplaceAll finite when the vocabulary contains the placeholder.
func (t *Trie) ReplaceOnce(tokens []string, placeholder string) ([]string, string, bool) {
	m, ok := t.nextMatch(tokens, 0, placeholder)
	if !ok {
		return tokens, "", false
	}

	out := make([]string, 0, len(tokens)-m.Length+1)
	out = append(out, tokens[:m.Start]...)
	out = append(out, placeholder)
	out = append(out, tokens[m.Start+m.Length:]...)

	return out, m.Text, true
}

// ReplaceAll repeatedly replaces the leftmost match until a full pass finds
// none. Each pass rescans from the start of the shortened sequence, so only
// the leftmost match is taken per pass rather than the best match overall.
// It returns the final tokens and the replaced phrase texts in order.
func (t *Trie) ReplaceAll(tokens []string, placeholder string) ([]string, []string) {
	var replaced []string
	for {
		next, text, ok := t.ReplaceOnce(tokens, placeholder)
		if !ok {
			return tokens, replaced
		}
		replaced = append(replaced, text)
		tokens = next
	}
}
