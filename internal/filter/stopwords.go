package filter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"

	"github.com/example/go-tweetnorm/internal/tokenizer"
)

// DisabledLevel turns stopword filtering off when passed as a level.
const DisabledLevel = -1

// ErrBadStopWordLine is returned for lines that are not "level word".
var ErrBadStopWordLine = errors.New("filter: malformed stopword line")

// StopWords holds leveled stopword lists. Level n filters every word
// registered at levels 0 through n. Words of two characters or fewer are
// always stopwords.
type StopWords struct {
	levels  map[int]map[string]struct{}
	english bool
}

// NewStopWords returns an empty list. When withEnglish is set, snowball's
// English stopwords also count at every level.
func NewStopWords(withEnglish bool) *StopWords {
	return &StopWords{levels: make(map[int]map[string]struct{}), english: withEnglish}
}

// Add registers word and its stem at level.
func (s *StopWords) Add(level int, word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || level < 0 {
		return
	}
	set, ok := s.levels[level]
	if !ok {
		set = make(map[string]struct{})
		s.levels[level] = set
	}
	set[word] = struct{}{}
	set[Stem(word)] = struct{}{}
}

// Len counts the registered words across all levels, stems included.
func (s *StopWords) Len() int {
	n := 0
	for _, set := range s.levels {
		n += len(set)
	}
	return n
}

// IsStopWord reports whether word is filtered at level.
func (s *StopWords) IsStopWord(word string, level int) bool {
	if level < 0 || tokenizer.IsMeta(word) {
		return false
	}
	if utf8.RuneCountInString(word) <= 2 {
		return true
	}
	if s == nil {
		return false
	}
	if s.english && english.IsStopWord(word) {
		return true
	}
	for l, set := range s.levels {
		if l > level {
			continue
		}
		if _, ok := set[word]; ok {
			return true
		}
	}
	return false
}

// Remove drops stopwords from tokens. The result is a new slice.
func (s *StopWords) Remove(tokens []string, level int) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if s.IsStopWord(tok, level) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Replace substitutes each stopword with replacement, where every '!' in
// replacement stands for the stopword itself.
func (s *StopWords) Replace(tokens []string, replacement string, level int) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if s.IsStopWord(tok, level) {
			out[i] = strings.ReplaceAll(replacement, "!", tok)
			continue
		}
		out[i] = tok
	}
	return out
}

// ReadStopWords parses "level word" lines. Blank lines and lines starting
// with '#' are skipped.
func ReadStopWords(r io.Reader, withEnglish bool) (*StopWords, error) {
	s := NewStopWords(withEnglish)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrBadStopWordLine, line, text)
		}
		level, err := strconv.Atoi(fields[0])
		if err != nil || level < 0 {
			return nil, fmt.Errorf("%w: line %d: bad level %q", ErrBadStopWordLine, line, fields[0])
		}
		s.Add(level, fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return s, nil
}

// LoadStopWords reads a stopword file. An empty path yields a list holding
// only the optional English defaults.
func LoadStopWords(path string, withEnglish bool) (*StopWords, error) {
	if path == "" {
		return NewStopWords(withEnglish), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopwords %q: %w", path, err)
	}
	defer f.Close()
	return ReadStopWords(f, withEnglish)
}
