package phrase

import (
	"context"
	"errors"
	"regexp"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSource_Query(t *testing.T) {
	tests := []struct {
		name     string
		src      PostgresSource
		wantSQL  string
		wantArgs []any
		wantErr  bool
	}{
		{
			name:    "default column",
			src:     PostgresSource{Table: "cities"},
			wantSQL: "SELECT location FROM cities WHERE location IS NOT NULL ORDER BY location",
		},
		{
			name:    "custom column",
			src:     PostgresSource{Table: "places", Column: "name"},
			wantSQL: "SELECT name FROM places WHERE name IS NOT NULL ORDER BY name",
		},
		{
			name: "frequency filter",
			src: PostgresSource{
				Table:   "cities",
				Exclude: &FrequencyFilter{Table: "word_frequency", MaxCount: 5000},
			},
			wantSQL: "SELECT location FROM cities WHERE location IS NOT NULL AND " +
				"location NOT IN (SELECT word FROM word_frequency WHERE count > $1) ORDER BY location",
			wantArgs: []any{5000},
		},
		{
			name:    "missing table",
			src:     PostgresSource{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.src.Query()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestPostgresSource_Phrases(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"location"}).
		AddRow("Boston").
		AddRow("New York City")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT location FROM cities")).
		WillReturnRows(rows)

	src := PostgresSource{DB: mock, Table: "cities"}
	got, err := src.Phrases(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Boston", "New York City"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

	src := PostgresSource{DB: mock, Table: "cities"}
	_, err = src.Phrases(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_NoDB(t *testing.T) {
	_, err := PostgresSource{Table: "cities"}.Phrases(context.Background())

	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestLoad_PostgresFailureIsNotFatal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	trie := Load(context.Background(), PostgresSource{DB: mock, Table: "cities"}, WithLogger(discardLogger()))

	assert.Equal(t, 0, trie.Len())
}
