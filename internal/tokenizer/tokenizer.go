// Package tokenizer splits short social-media text into normalized word
// tokens. Plain words are lowercase ASCII letters; contractions drop their
// apostrophe; escaped meta tokens of the form <$name$> pass through intact.
package tokenizer

import (
	"strings"
	"unicode"
)

// Meta tokens produced by Tokenize when meta replacement is enabled.
const (
	MetaRetweet = "<$RT$>"
	MetaMention = "<$@$>"
	MetaHashtag = "<$#$>"

	metaOpen  = "<$"
	metaClose = "$>"
)

// MetaToken wraps name in meta-token delimiters: MetaToken("link") == "<$link$>".
func MetaToken(name string) string {
	return metaOpen + name + metaClose
}

// IsMeta reports whether tok is a complete meta token.
func IsMeta(tok string) bool {
	return len(tok) >= len(metaOpen)+len(metaClose) &&
		strings.HasPrefix(tok, metaOpen) &&
		strings.HasSuffix(tok, metaClose)
}

// Split tokenizes text without meta replacement. Phrase vocabularies are
// tokenized this way.
func Split(text string) []string {
	return Tokenize(text, false)
}

// Tokenize splits text into tokens in a single left-to-right pass.
//
// Characters are lowercased before classification; only a-z form words and
// every other character outside a meta token ends the current word and is
// dropped. Text between "<$" and "$>" is kept verbatim as one token.
//
// With replaceMeta set, a '#' or '@' that starts a word and is followed by a
// letter becomes <$#$> or <$@$> and the tag or handle itself is dropped, and
// the word "rt" becomes <$RT$>.
func Tokenize(text string, replaceMeta bool) []string {
	if text == "" {
		return nil
	}

	s := scanner{
		raw:         []rune(text),
		replaceMeta: replaceMeta,
	}
	s.run()

	return s.tokens
}

type scanner struct {
	raw         []rune
	replaceMeta bool

	tokens []string
	buf    strings.Builder
	inMeta bool
	inWord bool
}

func (s *scanner) run() {
	for i := 0; i < len(s.raw); i++ {
		cur := unicode.ToLower(s.raw[i])
		next, hasNext := s.lowerAt(i + 1)

		switch {
		case unicode.IsSpace(cur):
			if s.inMeta {
				s.buf.WriteRune(s.raw[i])
				s.inWord = true
			} else if s.inWord {
				s.flush()
			}

		case s.startsTag(i, cur, next, hasNext):
			if cur == '#' {
				s.emit(MetaHashtag)
			} else {
				s.emit(MetaMention)
			}
			i = s.skipTag(i + 1)

		case s.inWord && hasNext && cur == '\'' && isLetter(next):
			// Contraction: drop the apostrophe and keep the letter.
			s.appendAt(i + 1)
			i++

		case hasNext && cur == '<' && next == '$':
			if s.inWord {
				s.flush()
			}
			s.buf.WriteString(metaOpen)
			s.inWord = true
			s.inMeta = true
			i++

		case s.inMeta && hasNext && cur == '$' && next == '>':
			s.buf.WriteString(metaClose)
			s.flush()
			i++

		case s.inMeta || isLetter(cur):
			s.appendAt(i)
			s.inWord = true

		case s.inWord:
			s.flush()
		}
	}

	if s.buf.Len() > 0 {
		s.flush()
	}
}

// startsTag reports whether position i opens a hashtag or mention.
func (s *scanner) startsTag(i int, cur, next rune, hasNext bool) bool {
	if !s.replaceMeta || s.inMeta || s.inWord {
		return false
	}
	if cur != '#' && cur != '@' {
		return false
	}
	if !hasNext || !isLetter(next) {
		return false
	}
	return i == 0 || unicode.IsSpace(s.raw[i-1])
}

// skipTag consumes the tag or handle body starting at i and returns the
// index of its last character.
func (s *scanner) skipTag(i int) int {
	for i < len(s.raw) {
		r := unicode.ToLower(s.raw[i])
		switch {
		case isLetter(r), r >= '0' && r <= '9', r == '_':
			i++
		case r == '\'':
			if next, ok := s.lowerAt(i + 1); ok && isLetter(next) {
				i += 2
				continue
			}
			return i - 1
		default:
			return i - 1
		}
	}
	return i - 1
}

// appendAt writes the character at i to the buffer. Meta-token bodies keep
// their original case.
func (s *scanner) appendAt(i int) {
	if s.inMeta {
		s.buf.WriteRune(s.raw[i])
		return
	}
	s.buf.WriteRune(unicode.ToLower(s.raw[i]))
}

func (s *scanner) lowerAt(i int) (rune, bool) {
	if i >= len(s.raw) {
		return 0, false
	}
	return unicode.ToLower(s.raw[i]), true
}

// flush emits the buffered token and resets the scan state.
func (s *scanner) flush() {
	s.emit(s.buf.String())
	s.buf.Reset()
	s.inWord = false
	s.inMeta = false
}

func (s *scanner) emit(tok string) {
	if s.replaceMeta && tok == "rt" {
		tok = MetaRetweet
	}
	s.tokens = append(s.tokens, tok)
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}
