package phrase

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of *pgxpool.Pool used by PostgresSource.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FrequencyFilter excludes phrases that are also very common single words,
// using a word frequency table.
type FrequencyFilter struct {
	Table    string // e.g. "word_frequency"
	Word     string // word column, default "word"
	Count    string // count column, default "count"
	MaxCount int    // phrases whose word count exceeds this are dropped
}

// PostgresSource reads phrases from a single text column of a table.
type PostgresSource struct {
	DB     Querier
	Table  string
	Column string
	// Exclude, when set, drops phrases that are common words.
	Exclude *FrequencyFilter
}

// NewPool opens a pgx connection pool for dsn and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Query builds the SELECT statement for the configured table.
func (s PostgresSource) Query() (string, []any, error) {
	column := s.Column
	if column == "" {
		column = "location"
	}
	if s.Table == "" {
		return "", nil, fmt.Errorf("postgres source: table is required")
	}

	b := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(column).
		From(s.Table).
		Where(sq.NotEq{column: nil})

	if f := s.Exclude; f != nil && f.Table != "" {
		word, count := f.Word, f.Count
		if word == "" {
			word = "word"
		}
		if count == "" {
			count = "count"
		}
		common := sq.Select(word).From(f.Table).Where(sq.Gt{count: f.MaxCount})
		sub, args, err := common.ToSql()
		if err != nil {
			return "", nil, fmt.Errorf("build frequency filter: %w", err)
		}
		b = b.Where(sq.Expr(column+" NOT IN ("+sub+")", args...))
	}

	return b.OrderBy(column).ToSql()
}

// Phrases implements Source.
func (s PostgresSource) Phrases(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("%w: no database connection", ErrSourceUnavailable)
	}

	query, args, err := s.Query()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrSourceUnavailable, s.Table, err)
	}

	phrases, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", ErrSourceUnavailable, s.Table, err)
	}

	return phrases, nil
}
