package filter

import (
	"io"
	"log/slog"

	"github.com/example/go-tweetnorm/internal/phrase"
	"github.com/example/go-tweetnorm/internal/tokenizer"
)

// Default substitution formats used by TweetFilter.
var (
	DefaultLinkReplacement = " " + tokenizer.MetaToken("link") + " "
	DefaultEmoticonFormat  = " " + tokenizer.MetaToken("emote:%s") + " "
)

// DefaultStopWordLevel filters the level 0 list and short words.
const DefaultStopWordLevel = 0

var (
	defaultEmoticonParser = NewEmoticonParser(DefaultEmoticonFormat)

	_ Filter = (*TweetFilter)(nil)
)

// Result is one normalized tweet.
type Result struct {
	Tokens   []string `json:"tokens"`
	Replaced []string `json:"replaced,omitempty"`
}

// Option configures a TweetFilter.
type Option func(*TweetFilter)

// WithReplaceMeta toggles the retweet marker rewrite in the tokenizer.
func WithReplaceMeta(on bool) Option {
	return func(f *TweetFilter) { f.replaceMeta = on }
}

// WithPlaceholder sets the token that replaces matched phrases.
func WithPlaceholder(p string) Option {
	return func(f *TweetFilter) {
		if p != "" {
			f.placeholder = p
		}
	}
}

// WithLinkReplacement sets the text links are replaced with. An empty
// string deletes links.
func WithLinkReplacement(r string) Option {
	return func(f *TweetFilter) { f.linkReplacement = r }
}

// WithEmoticons toggles emoticon substitution.
func WithEmoticons(on bool) Option {
	return func(f *TweetFilter) {
		if on {
			f.emoticons = defaultEmoticonParser
		} else {
			f.emoticons = nil
		}
	}
}

// WithEmoticonFormat enables emoticon substitution rendered through format.
func WithEmoticonFormat(format string) Option {
	return func(f *TweetFilter) { f.emoticons = NewEmoticonParser(format) }
}

// WithStopWords sets the stopword list and level. DisabledLevel turns
// removal off.
func WithStopWords(s *StopWords, level int) Option {
	return func(f *TweetFilter) {
		f.stop = s
		f.stopLevel = level
	}
}

// WithStemming toggles Porter2 stemming of the output.
func WithStemming(on bool) Option {
	return func(f *TweetFilter) { f.stem = on }
}

// WithAccentFolding toggles accent stripping before tokenization.
func WithAccentFolding(on bool) Option {
	return func(f *TweetFilter) { f.fold = on }
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(f *TweetFilter) {
		if l != nil {
			f.logger = l
		}
	}
}

// TweetFilter normalizes tweets: links and emoticons are replaced, the text
// is tokenized, known phrases collapse into a placeholder and stopwords are
// dropped. It is safe for concurrent use once built.
type TweetFilter struct {
	trie            *phrase.Trie
	replaceMeta     bool
	placeholder     string
	linkReplacement string
	emoticons       *EmoticonParser
	stop            *StopWords
	stopLevel       int
	stem            bool
	fold            bool
	logger          *slog.Logger
}

// NewTweetFilter builds a filter around trie. A nil trie disables phrase
// replacement.
func NewTweetFilter(trie *phrase.Trie, opts ...Option) *TweetFilter {
	if trie == nil {
		trie = phrase.New()
	}
	f := &TweetFilter{
		trie:            trie,
		replaceMeta:     true,
		placeholder:     phrase.DefaultPlaceholder,
		linkReplacement: DefaultLinkReplacement,
		emoticons:       defaultEmoticonParser,
		stopLevel:       DefaultStopWordLevel,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Trie returns the phrase vocabulary in use.
func (f *TweetFilter) Trie() *phrase.Trie {
	return f.trie
}

// Placeholder returns the phrase placeholder token.
func (f *TweetFilter) Placeholder() string {
	return f.placeholder
}

// Normalize runs the full pipeline over one tweet.
func (f *TweetFilter) Normalize(input string) Result {
	if f.fold {
		input = FoldAccents(input)
	}
	if f.linkReplacement == "" {
		input = RemoveLinks(input)
	} else {
		input = ReplaceLinks(input, f.linkReplacement)
	}
	if f.emoticons != nil {
		input = f.emoticons.Parse(input)
	}

	tokens := tokenizer.Tokenize(input, f.replaceMeta)
	tokens, replaced := f.trie.ReplaceAll(tokens, f.placeholder)
	if len(replaced) > 0 {
		f.logger.Debug("replaced phrases", "phrases", replaced)
	}
	if f.stopLevel != DisabledLevel {
		tokens = f.stop.Remove(tokens, f.stopLevel)
	}
	if f.stem {
		tokens = StemAll(tokens)
	}
	return Result{Tokens: tokens, Replaced: replaced}
}

// SplitFilter returns the normalized tokens of input.
func (f *TweetFilter) SplitFilter(input string) []string {
	return f.Normalize(input).Tokens
}
