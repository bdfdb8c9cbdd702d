// Package phrase detects known multi-word phrases, such as place names, in
// token sequences produced by the tokenizer package.
//
// A Trie is built once from a phrase vocabulary and is read-only afterwards,
// so a single Trie may be shared by any number of goroutines.
package phrase

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/go-tweetnorm/internal/tokenizer"
)

// ErrEmptyPhrase is returned when a phrase tokenizes to nothing.
var ErrEmptyPhrase = errors.New("phrase: empty phrase")

// Node is one position along one or more stored phrases.
type Node struct {
	// Terminal is set when a stored phrase ends at this node.
	Terminal bool
	// Children maps the next token to the node that follows it.
	Children map[string]*Node
}

func newNode() *Node {
	return &Node{Children: make(map[string]*Node)}
}

// Trie is a prefix tree over tokenized phrases.
type Trie struct {
	root  map[string]*Node
	count int
}

// New returns an empty trie. An empty trie never matches anything.
func New() *Trie {
	return &Trie{root: make(map[string]*Node)}
}

// Build tokenizes every phrase and inserts it into a new trie. Phrases that
// tokenize to nothing are logged and skipped; an empty vocabulary is logged
// and yields an empty trie.
func Build(phrases []string, opts ...Option) *Trie {
	o := applyOptions(opts)

	t := New()
	if len(phrases) == 0 {
		o.logger.Warn("no phrases loaded; phrase replacement disabled")
		return t
	}

	skipped := 0
	for i, p := range phrases {
		if err := t.Insert(tokenizer.Split(p)); err != nil {
			skipped++
			o.logger.Error("skipping malformed phrase",
				slog.Int("line", i+1),
				slog.String("phrase", p),
				slog.String("error", err.Error()),
			)
		}
	}

	o.logger.Debug("phrase trie built",
		slog.Int("phrases", t.Len()),
		slog.Int("skipped", skipped),
	)

	return t
}

// Insert adds a tokenized phrase. Shared prefixes are merged and inserting
// the same phrase twice is a no-op. Insert must not be called once the trie
// is in use by readers.
func (t *Trie) Insert(tokens []string) error {
	if len(tokens) == 0 {
		return ErrEmptyPhrase
	}

	node, ok := t.root[tokens[0]]
	if !ok {
		node = newNode()
		t.root[tokens[0]] = node
	}

	for _, tok := range tokens[1:] {
		child, ok := node.Children[tok]
		if !ok {
			child = newNode()
			node.Children[tok] = child
		}
		node = child
	}

	if !node.Terminal {
		node.Terminal = true
		t.count++
	}

	return nil
}

// Len returns the number of distinct phrases stored.
func (t *Trie) Len() int {
	return t.count
}

// Contains reports whether tokens is exactly a stored phrase.
func (t *Trie) Contains(tokens []string) bool {
	return len(tokens) > 0 && t.LongestMatch(tokens, 0) == len(tokens)
}

// LongestMatch returns the length in tokens of the longest stored phrase
// that begins at tokens[start], or 0 when none does.
func (t *Trie) LongestMatch(tokens []string, start int) int {
	if start < 0 || start >= len(tokens) {
		return 0
	}

	best := 0
	node := t.root[tokens[start]]
	for depth := 1; node != nil; depth++ {
		if node.Terminal {
			best = depth
		}

		next := start + depth
		if next >= len(tokens) {
			break
		}
		node = node.Children[tokens[next]]
	}

	return best
}

// Dump writes the structure of the trie, one token per line with its
// terminal flag, indenting three spaces per level. Siblings are sorted.
func (t *Trie) Dump(w io.Writer) error {
	return dumpLevel(w, t.root, "")
}

func dumpLevel(w io.Writer, level map[string]*Node, indent string) error {
	keys := make([]string, 0, len(level))
	for k := range level {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		node := level[k]
		if _, err := fmt.Fprintf(w, "%s%s(%t)\n", indent, k, node.Terminal); err != nil {
			return err
		}
		if err := dumpLevel(w, node.Children, indent+"   "); err != nil {
			return err
		}
	}

	return nil
}

// String returns the Dump output.
func (t *Trie) String() string {
	var b strings.Builder
	_ = t.Dump(&b)
	return b.String()
}
