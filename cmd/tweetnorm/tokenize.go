package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-tweetnorm/internal/filter"
	"github.com/example/go-tweetnorm/internal/tokenizer"
)

func newTokenizeCmd() *cobra.Command {
	var (
		input string
		meta  bool
	)

	cmd := &cobra.Command{
		Use:   "tokenize [text...]",
		Short: "Split tweets into tokens without filtering",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(args, input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, in := range inputs {
				if _, err := fmt.Fprintln(out, filter.Join(tokenizer.Tokenize(in, meta))); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Read tweets from this file, one per line (default stdin)")
	cmd.Flags().BoolVar(&meta, "meta", true, "Rewrite RT, hashtags and mentions as meta tokens")

	return cmd
}
