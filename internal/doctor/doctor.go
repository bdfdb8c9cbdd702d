// Package doctor provides environment preflight checks for tweetnorm.
package doctor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-tweetnorm/internal/filter"
	"github.com/example/go-tweetnorm/internal/phrase"
	"github.com/example/go-tweetnorm/internal/tokenizer"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// PhraseFile is the phrase vocabulary to verify. Empty skips the check.
	PhraseFile string
	// PostgresPing checks the phrase database. Nil skips the check.
	PostgresPing PingFunc
	// StopwordsFile is an optional leveled stopword list.
	StopwordsFile string
	// Placeholder must be a <$name$> meta token.
	Placeholder string
	// EmoteFormat must contain a single %s.
	EmoteFormat string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(ctx context.Context, cfg Config, w io.Writer) Result {
	var res Result

	// ---- phrase file ------------------------------------------------------
	if cfg.PhraseFile == "" {
		fmt.Fprintf(w, "%s phrase file: skipped\n", PassMark)
	} else {
		phrases, err := phrase.FileSource{Path: cfg.PhraseFile}.Phrases(ctx)
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("phrase file %q: %v", cfg.PhraseFile, err))
			fmt.Fprintf(w, "%s phrase file %s: %v\n", FailMark, cfg.PhraseFile, err)
		case len(phrases) == 0:
			res.fail(fmt.Sprintf("phrase file %q: no phrases", cfg.PhraseFile))
			fmt.Fprintf(w, "%s phrase file %s: empty\n", FailMark, cfg.PhraseFile)
		default:
			trie := phrase.Build(phrases)
			fmt.Fprintf(w, "%s phrase file: %s (%d phrases, %d distinct)\n",
				PassMark, cfg.PhraseFile, len(phrases), trie.Len())
		}
	}

	// ---- postgres ---------------------------------------------------------
	if cfg.PostgresPing == nil {
		fmt.Fprintf(w, "%s postgres: skipped\n", PassMark)
	} else if err := cfg.PostgresPing(ctx); err != nil {
		res.fail(fmt.Sprintf("postgres: %v", err))
		fmt.Fprintf(w, "%s postgres: unreachable (%v)\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s postgres: reachable\n", PassMark)
	}

	// ---- stopwords --------------------------------------------------------
	if cfg.StopwordsFile == "" {
		fmt.Fprintf(w, "%s stopwords file: none\n", PassMark)
	} else if sw, err := filter.LoadStopWords(cfg.StopwordsFile, false); err != nil {
		res.fail(fmt.Sprintf("stopwords file: %v", err))
		fmt.Fprintf(w, "%s stopwords file %s: %v\n", FailMark, cfg.StopwordsFile, err)
	} else {
		fmt.Fprintf(w, "%s stopwords file: %s (%d entries)\n", PassMark, cfg.StopwordsFile, sw.Len())
	}

	// ---- token formats ----------------------------------------------------
	if cfg.Placeholder != "" {
		if !tokenizer.IsMeta(cfg.Placeholder) {
			res.fail(fmt.Sprintf("placeholder %q is not a <$name$> meta token", cfg.Placeholder))
			fmt.Fprintf(w, "%s placeholder %q: not a meta token\n", FailMark, cfg.Placeholder)
		} else {
			fmt.Fprintf(w, "%s placeholder: %s\n", PassMark, cfg.Placeholder)
		}
	}
	if cfg.EmoteFormat != "" {
		if strings.Count(cfg.EmoteFormat, "%s") != 1 {
			res.fail(fmt.Sprintf("emote format %q must contain exactly one %%s", cfg.EmoteFormat))
			fmt.Fprintf(w, "%s emote format %q: needs exactly one %%s\n", FailMark, cfg.EmoteFormat)
		} else {
			fmt.Fprintf(w, "%s emote format: %s\n", PassMark, cfg.EmoteFormat)
		}
	}

	return res
}
