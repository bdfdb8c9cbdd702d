package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/go-tweetnorm/internal/config"
	"github.com/example/go-tweetnorm/internal/logging"
)

var (
	cfgFile   string
	activeCfg config.Config
	cfgLoaded bool

	logCloser = func() error { return nil }
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "tweetnorm",
		Short:         "Tweet tokenizer and phrase normalizer",
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			if err := setupLogger(loaded); err != nil {
				return err
			}
			activeCfg = loaded
			cfgLoaded = true
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newTokenizeCmd())
	cmd.AddCommand(newPhrasesCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

func versionString() string {
	if buildDate == "" {
		return version
	}
	return fmt.Sprintf("%s (built %s)", version, buildDate)
}

// setupLogger configures the process-wide slog default logger. Any log file
// opened by a previous call is flushed first.
func setupLogger(cfg config.Config) error {
	logger, closeFn, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return err
	}
	_ = closeLogger()
	logCloser = closeFn
	slog.SetDefault(logger)
	return nil
}

func closeLogger() error {
	err := logCloser()
	logCloser = func() error { return nil }
	return err
}

func requireConfig() (config.Config, error) {
	if !cfgLoaded {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}
