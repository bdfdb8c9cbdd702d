package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-tweetnorm/internal/config"
	"github.com/example/go-tweetnorm/internal/doctor"
	"github.com/example/go-tweetnorm/internal/phrase"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check phrase sources, stopword lists and token formats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "phrase source: %s\n", cfg.Phrases.Source)

			result := doctor.Run(cmd.Context(), doctorConfig(cfg), out)

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}
}

func doctorConfig(cfg config.Config) doctor.Config {
	dcfg := doctor.Config{
		StopwordsFile: cfg.Filter.StopwordsFile,
		Placeholder:   cfg.Phrases.Placeholder,
		EmoteFormat:   cfg.Filter.EmoteFormat,
	}

	switch cfg.Phrases.Source {
	case config.SourceFile:
		dcfg.PhraseFile = cfg.Phrases.File
	case config.SourcePostgres:
		pg := cfg.Postgres
		dcfg.PostgresPing = func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, postgresTimeout(pg))
			defer cancel()

			pool, err := phrase.NewPool(ctx, pg.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			_, err = postgresSource(pg, pool).Phrases(ctx)
			return err
		}
	}

	return dcfg
}
