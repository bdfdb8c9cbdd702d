package phrase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-tweetnorm/internal/text"
)

// ErrSourceUnavailable wraps failures to read a phrase vocabulary.
var ErrSourceUnavailable = errors.New("phrase: source unavailable")

// Source supplies the raw phrase vocabulary.
type Source interface {
	Phrases(ctx context.Context) ([]string, error)
}

// StaticSource serves a fixed in-memory vocabulary.
type StaticSource []string

// Phrases implements Source.
func (s StaticSource) Phrases(_ context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// FileSource reads one phrase per line from a text file. Blank lines and
// lines starting with '#' are ignored.
type FileSource struct {
	Path string
}

// Phrases implements Source.
func (s FileSource) Phrases(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	lines, err := text.SplitLines(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, s.Path, err)
	}

	phrases := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		phrases = append(phrases, line)
	}

	return phrases, nil
}

// Load fetches the vocabulary from src and builds a trie from it. A failing
// or missing source is logged and yields an empty trie so that replacement
// degrades to a no-op. A nil src also yields an empty trie.
func Load(ctx context.Context, src Source, opts ...Option) *Trie {
	o := applyOptions(opts)

	if src == nil {
		o.logger.Info("no phrase source configured; phrase replacement disabled")
		return New()
	}

	phrases, err := src.Phrases(ctx)
	if err != nil {
		o.logger.Error("error getting phrases", slog.String("error", err.Error()))
		return New()
	}

	return Build(phrases, opts...)
}
