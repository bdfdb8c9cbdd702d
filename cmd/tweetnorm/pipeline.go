package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/example/go-tweetnorm/internal/config"
	"github.com/example/go-tweetnorm/internal/filter"
	"github.com/example/go-tweetnorm/internal/phrase"
	"github.com/example/go-tweetnorm/internal/text"
)

// loadTrie builds the phrase vocabulary from the configured source. Source
// failures are logged and leave the trie empty.
func loadTrie(ctx context.Context, cfg config.Config, logger *slog.Logger) *phrase.Trie {
	opts := []phrase.Option{phrase.WithLogger(logger)}

	switch cfg.Phrases.Source {
	case config.SourceNone:
		return phrase.Load(ctx, nil, opts...)
	case config.SourcePostgres:
		ctx, cancel := context.WithTimeout(ctx, postgresTimeout(cfg.Postgres))
		defer cancel()

		pool, err := phrase.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Error("error getting phrases", slog.String("error", err.Error()))
			return phrase.New()
		}
		defer pool.Close()

		return phrase.Load(ctx, postgresSource(cfg.Postgres, pool), opts...)
	default:
		return phrase.Load(ctx, phrase.FileSource{Path: cfg.Phrases.File}, opts...)
	}
}

func postgresSource(cfg config.PostgresConfig, db phrase.Querier) phrase.PostgresSource {
	src := phrase.PostgresSource{
		DB:     db,
		Table:  cfg.Table,
		Column: cfg.Column,
	}
	if cfg.FrequencyTable != "" && cfg.MaxWordCount > 0 {
		src.Exclude = &phrase.FrequencyFilter{
			Table:    cfg.FrequencyTable,
			MaxCount: cfg.MaxWordCount,
		}
	}
	return src
}

func postgresTimeout(cfg config.PostgresConfig) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

// buildFilter assembles the tweet filter described by cfg.
func buildFilter(ctx context.Context, cfg config.Config, logger *slog.Logger) (*filter.TweetFilter, error) {
	stop, err := filter.LoadStopWords(cfg.Filter.StopwordsFile, cfg.Filter.EnglishStopwords)
	if err != nil {
		return nil, err
	}

	trie := loadTrie(ctx, cfg, logger)

	opts := []filter.Option{
		filter.WithReplaceMeta(cfg.Filter.ReplaceMeta),
		filter.WithPlaceholder(cfg.Phrases.Placeholder),
		filter.WithLinkReplacement(pad(cfg.Filter.LinkPlaceholder)),
		filter.WithStopWords(stop, cfg.Filter.StopwordLevel),
		filter.WithStemming(cfg.Filter.Stem),
		filter.WithAccentFolding(cfg.Filter.FoldAccents),
		filter.WithLogger(logger),
	}
	if cfg.Filter.Emoticons {
		opts = append(opts, filter.WithEmoticonFormat(pad(cfg.Filter.EmoteFormat)))
	} else {
		opts = append(opts, filter.WithEmoticons(false))
	}

	return filter.NewTweetFilter(trie, opts...), nil
}

// pad surrounds a substitution with spaces so it tokenizes on its own.
func pad(s string) string {
	if s == "" {
		return ""
	}
	return " " + s + " "
}

// readInputs returns args when given, otherwise the non-empty lines of the
// input file ("-" or empty means stdin).
func readInputs(args []string, input string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}, nil
	}

	r := stdin
	if input != "" && input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	lines, err := text.SplitLines(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}
