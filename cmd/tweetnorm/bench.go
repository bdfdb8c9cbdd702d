package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/go-tweetnorm/internal/bench"
)

func newBenchCmd() *cobra.Command {
	var (
		input         string
		runs          int
		format        string
		minThroughput float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark normalization throughput over a tweet corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if input == "" {
				return fmt.Errorf("--input is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			lines, err := readInputs(nil, input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return fmt.Errorf("no tweets in %s", input)
			}

			f, err := buildFilter(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}

			results := bench.Run(f, lines, runs)
			stats := bench.ComputeStats(bench.Durations(results))

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if err := bench.FormatJSON(results, stats, out); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, out)
			}

			return bench.CheckMinThroughput(results, minThroughput)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Tweet corpus, one tweet per line (- for stdin)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of passes over the corpus")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&minThroughput, "min-throughput", 0, "Exit non-zero if mean lines/s falls below this value (0 = disabled)")

	return cmd
}
