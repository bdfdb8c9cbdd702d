package filter

import (
	"fmt"
	"regexp"
	"strings"
)

type emoticon struct {
	re   *regexp.Regexp
	name string
}

// Patterns are applied in order. Three-character faces go first so that the
// two-character faces inside them do not win.
var emoticonTable = []emoticon{
	{regexp.MustCompile(`<3`), "heart"},
	{regexp.MustCompile(`>[:8=][ o-]?[(\[<{o]`), "angry"},
	{regexp.MustCompile(`[)\]>}Do][ o-]?[:8=]<`), "angry"},
	{regexp.MustCompile(`>.>`), "shifty"},
	{regexp.MustCompile(`<.<`), "shifty"},
	{regexp.MustCompile(`\^.\^`), "happy"},
	{regexp.MustCompile(`>.<`), "doh"},
	{regexp.MustCompile(`;[ o-]?[)\]>}D]`), "wink"},
	{regexp.MustCompile(`[(\[<{][ o-]?;`), "wink"},
	{regexp.MustCompile(`[:8=][ o-]?[)\]>}D]`), "smile"},
	{regexp.MustCompile(`[(\[<{C][ o-]?[:8=]`), "smile"},
	{regexp.MustCompile(`[:8=][ o-]?[(\[{C]`), "frown"},
	{regexp.MustCompile(`[)\]}D][ o-]?[:8=]`), "frown"},
	{regexp.MustCompile(`[:8=] ?[\\/]`), "slant"},
	{regexp.MustCompile(`[\\/] ?[:8=]`), "slant"},
}

// EmoticonParser replaces text emoticons with words.
type EmoticonParser struct {
	format string
}

// NewEmoticonParser returns a parser that renders each emoticon name through
// format, which must contain a single %s. An empty format means "%s".
func NewEmoticonParser(format string) *EmoticonParser {
	if format == "" || !strings.Contains(format, "%s") {
		format = "%s"
	}
	return &EmoticonParser{format: format}
}

// Format returns the replacement format.
func (p *EmoticonParser) Format() string {
	return p.format
}

// Parse replaces every emoticon in s.
func (p *EmoticonParser) Parse(s string) string {
	for _, e := range emoticonTable {
		if !e.re.MatchString(s) {
			continue
		}
		s = e.re.ReplaceAllLiteralString(s, fmt.Sprintf(p.format, e.name))
	}
	return s
}
