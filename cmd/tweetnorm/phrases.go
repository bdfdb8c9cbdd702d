package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-tweetnorm/internal/tokenizer"
)

func newPhrasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phrases",
		Short: "Inspect the phrase vocabulary",
	}

	cmd.AddCommand(newPhrasesDumpCmd())
	cmd.AddCommand(newPhrasesMatchCmd())

	return cmd
}

func newPhrasesDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the phrase trie, one token per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			trie := loadTrie(cmd.Context(), cfg, slog.Default())
			if err := trie.Dump(cmd.OutOrStdout()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%d phrases\n", trie.Len())
			return err
		},
	}
}

func newPhrasesMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <text...>",
		Short: "List the phrases found in a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			trie := loadTrie(cmd.Context(), cfg, slog.Default())
			tokens := tokenizer.Split(strings.Join(args, " "))

			out := cmd.OutOrStdout()
			for _, m := range trie.Matches(tokens) {
				if _, err := fmt.Fprintf(out, "%d\t%d\t%s\n", m.Start, m.Length, m.Text); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
