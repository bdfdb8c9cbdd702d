package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-tweetnorm/internal/filter"
	"github.com/example/go-tweetnorm/internal/text"
)

func newNormalizeCmd() *cobra.Command {
	var (
		input        string
		asJSON       bool
		showReplaced bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Normalize tweets into filtered token streams",
		Long: "Normalize the text given as arguments, or every line of --input " +
			"(stdin by default). Each input produces one output line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputs, err := readInputs(args, input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			f, err := buildFilter(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for _, in := range inputs {
				var res filter.Result
				cleaned, err := text.Normalize(in)
				switch {
				case errors.Is(err, text.ErrEmptyText):
					res = filter.Result{Tokens: []string{}}
				case err != nil:
					return err
				default:
					res = f.Normalize(cleaned)
				}

				if asJSON {
					if err := enc.Encode(res); err != nil {
						return err
					}
					continue
				}

				line := filter.Join(res.Tokens)
				if showReplaced && len(res.Replaced) > 0 {
					line += "\t" + strings.Join(res.Replaced, ", ")
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Read tweets from this file, one per line (default stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write one JSON object per input")
	cmd.Flags().BoolVar(&showReplaced, "show-replaced", false, "Append the replaced phrases after a tab")

	return cmd
}
