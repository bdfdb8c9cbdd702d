package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	ErrInvalidLogFormat   = errors.New("config: invalid log format")
	ErrInvalidServer      = errors.New("config: invalid server settings")
	ErrMissingPostgresDSN = errors.New("config: postgres phrase source needs postgres.dsn")
)

// Config holds every setting the CLI and server read.
type Config struct {
	Phrases   PhrasesConfig  `mapstructure:"phrases"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
	Filter    FilterConfig   `mapstructure:"filter"`
	Server    ServerConfig   `mapstructure:"server"`
	LogLevel  string         `mapstructure:"log_level"`
	LogFile   string         `mapstructure:"log_file"`
	LogFormat string         `mapstructure:"log_format"`
}

type PhrasesConfig struct {
	Source      string `mapstructure:"source"`
	File        string `mapstructure:"file"`
	Placeholder string `mapstructure:"placeholder"`
}

type PostgresConfig struct {
	DSN            string `mapstructure:"dsn"`
	Table          string `mapstructure:"table"`
	Column         string `mapstructure:"column"`
	FrequencyTable string `mapstructure:"frequency_table"`
	MaxWordCount   int    `mapstructure:"max_word_count"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type FilterConfig struct {
	ReplaceMeta      bool   `mapstructure:"replace_meta"`
	StopwordLevel    int    `mapstructure:"stopword_level"`
	StopwordsFile    string `mapstructure:"stopwords_file"`
	EnglishStopwords bool   `mapstructure:"english_stopwords"`
	Stem             bool   `mapstructure:"stem"`
	FoldAccents      bool   `mapstructure:"fold_accents"`
	LinkPlaceholder  string `mapstructure:"link_placeholder"`
	Emoticons        bool   `mapstructure:"emoticons"`
	EmoteFormat      string `mapstructure:"emote_format"`
}

type ServerConfig struct {
	ListenAddr      string   `mapstructure:"listen_addr"`
	Workers         int      `mapstructure:"workers"`
	MaxTextBytes    int      `mapstructure:"max_text_bytes"`
	MaxBatch        int      `mapstructure:"max_batch"`
	RequestTimeout  int      `mapstructure:"request_timeout"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

// LoadOptions controls Load. Cmd may be nil when no flags are bound.
type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// DefaultConfig returns the built-in settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		Phrases: PhrasesConfig{
			Source:      SourceFile,
			File:        "data/locations.txt",
			Placeholder: "<$location$>",
		},
		Postgres: PostgresConfig{
			DSN:            "",
			Table:          "locations",
			Column:         "location",
			FrequencyTable: "",
			MaxWordCount:   0,
			TimeoutSeconds: 10,
		},
		Filter: FilterConfig{
			ReplaceMeta:      true,
			StopwordLevel:    0,
			StopwordsFile:    "",
			EnglishStopwords: true,
			Stem:             false,
			FoldAccents:      true,
			LinkPlaceholder:  "<$link$>",
			Emoticons:        true,
			EmoteFormat:      "<$emote:%s$>",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxTextBytes:    4096,
			MaxBatch:        256,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
			CORSOrigins:     []string{"*"},
		},
		LogLevel:  "info",
		LogFile:   "",
		LogFormat: "json",
	}
}

// RegisterFlags defines one flag per config key on fs, defaulting to defaults.
func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("phrases-source", defaults.Phrases.Source, "Phrase source (file|postgres|none)")
	fs.String("phrases-file", defaults.Phrases.File, "Phrase file, one phrase per line")
	fs.String("phrases-placeholder", defaults.Phrases.Placeholder, "Token substituted for matched phrases")
	fs.String("postgres-dsn", defaults.Postgres.DSN, "Postgres connection string")
	fs.String("postgres-table", defaults.Postgres.Table, "Table holding phrases")
	fs.String("postgres-column", defaults.Postgres.Column, "Column holding phrases")
	fs.String("postgres-frequency-table", defaults.Postgres.FrequencyTable, "Word frequency table used to drop common words")
	fs.Int("postgres-max-word-count", defaults.Postgres.MaxWordCount, "Drop phrases that are words counted more often than this (0 disables)")
	fs.Int("postgres-timeout-seconds", defaults.Postgres.TimeoutSeconds, "Postgres connect and query timeout")
	fs.Bool("filter-replace-meta", defaults.Filter.ReplaceMeta, "Rewrite RT, hashtags and mentions as meta tokens")
	fs.Int("filter-stopword-level", defaults.Filter.StopwordLevel, "Stopword level (-1 disables removal)")
	fs.String("filter-stopwords-file", defaults.Filter.StopwordsFile, "Stopword file of \"level word\" lines")
	fs.Bool("filter-english-stopwords", defaults.Filter.EnglishStopwords, "Include the English stopword list")
	fs.Bool("filter-stem", defaults.Filter.Stem, "Stem output tokens")
	fs.Bool("filter-fold-accents", defaults.Filter.FoldAccents, "Strip accents before tokenizing")
	fs.String("filter-link-placeholder", defaults.Filter.LinkPlaceholder, "Token substituted for links (empty deletes links)")
	fs.Bool("filter-emoticons", defaults.Filter.Emoticons, "Replace emoticons with meta tokens")
	fs.String("filter-emote-format", defaults.Filter.EmoteFormat, "Format for emoticon tokens (%s is the emoticon name)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent normalization requests")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Max bytes per input text")
	fs.Int("server-max-batch", defaults.Server.MaxBatch, "Max texts per batch request")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.StringSlice("server-cors-origins", defaults.Server.CORSOrigins, "Allowed CORS origins")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("log-file", defaults.LogFile, "Also write logs to this file")
	fs.String("log-format", defaults.LogFormat, "Log format (json|text)")
}

// Load resolves the config from, lowest precedence first: opts.Defaults, the
// config file (opts.ConfigFile, or tweetnorm.* in the working directory when
// present), TWEETNORM_* environment variables and flags set on opts.Cmd.
// DATABASE_URL is also accepted for postgres.dsn. The phrase source is
// normalized; Validate is left to the caller.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("TWEETNORM")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("postgres.dsn", "TWEETNORM_POSTGRES_DSN", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind postgres env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tweetnorm")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	source, err := NormalizeSource(cfg.Phrases.Source)
	if err != nil {
		return Config{}, err
	}
	cfg.Phrases.Source = source

	return cfg, nil
}

// Validate checks settings that only matter once a command runs.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	if c.Server.Workers < 1 || c.Server.MaxTextBytes < 1 || c.Server.MaxBatch < 1 {
		return fmt.Errorf("%w: workers, max_text_bytes and max_batch must be positive", ErrInvalidServer)
	}
	if c.Phrases.Source == SourcePostgres && c.Postgres.DSN == "" {
		return ErrMissingPostgresDSN
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("phrases.source", c.Phrases.Source)
	v.SetDefault("phrases.file", c.Phrases.File)
	v.SetDefault("phrases.placeholder", c.Phrases.Placeholder)
	v.SetDefault("postgres.dsn", c.Postgres.DSN)
	v.SetDefault("postgres.table", c.Postgres.Table)
	v.SetDefault("postgres.column", c.Postgres.Column)
	v.SetDefault("postgres.frequency_table", c.Postgres.FrequencyTable)
	v.SetDefault("postgres.max_word_count", c.Postgres.MaxWordCount)
	v.SetDefault("postgres.timeout_seconds", c.Postgres.TimeoutSeconds)
	v.SetDefault("filter.replace_meta", c.Filter.ReplaceMeta)
	v.SetDefault("filter.stopword_level", c.Filter.StopwordLevel)
	v.SetDefault("filter.stopwords_file", c.Filter.StopwordsFile)
	v.SetDefault("filter.english_stopwords", c.Filter.EnglishStopwords)
	v.SetDefault("filter.stem", c.Filter.Stem)
	v.SetDefault("filter.fold_accents", c.Filter.FoldAccents)
	v.SetDefault("filter.link_placeholder", c.Filter.LinkPlaceholder)
	v.SetDefault("filter.emoticons", c.Filter.Emoticons)
	v.SetDefault("filter.emote_format", c.Filter.EmoteFormat)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.max_batch", c.Server.MaxBatch)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", c.Server.CORSOrigins)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("log_file", c.LogFile)
	v.SetDefault("log_format", c.LogFormat)
}

// flagKeys maps config keys to the flags RegisterFlags defines.
var flagKeys = map[string]string{
	"phrases.source":           "phrases-source",
	"phrases.file":             "phrases-file",
	"phrases.placeholder":      "phrases-placeholder",
	"postgres.dsn":             "postgres-dsn",
	"postgres.table":           "postgres-table",
	"postgres.column":          "postgres-column",
	"postgres.frequency_table": "postgres-frequency-table",
	"postgres.max_word_count":  "postgres-max-word-count",
	"postgres.timeout_seconds": "postgres-timeout-seconds",
	"filter.replace_meta":      "filter-replace-meta",
	"filter.stopword_level":    "filter-stopword-level",
	"filter.stopwords_file":    "filter-stopwords-file",
	"filter.english_stopwords": "filter-english-stopwords",
	"filter.stem":              "filter-stem",
	"filter.fold_accents":      "filter-fold-accents",
	"filter.link_placeholder":  "filter-link-placeholder",
	"filter.emoticons":         "filter-emoticons",
	"filter.emote_format":      "filter-emote-format",
	"server.listen_addr":       "server-listen-addr",
	"server.workers":           "server-workers",
	"server.max_text_bytes":    "server-max-text-bytes",
	"server.max_batch":         "server-max-batch",
	"server.request_timeout":   "server-request-timeout",
	"server.shutdown_timeout":  "server-shutdown-timeout",
	"server.cors_origins":      "server-cors-origins",
	"log_level":                "log-level",
	"log_file":                 "log-file",
	"log_format":               "log-format",
}

// bindFlags binds each config key to its flag. Only flags the user set
// override config file and environment values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}
