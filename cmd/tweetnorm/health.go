package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-tweetnorm/internal/server"
)

func newHealthCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report the status and phrase count of a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			h, err := server.FetchHealth(addr)
			if err != nil {
				return fmt.Errorf("health %s: %w", addr, err)
			}
			if h.Phrases == 0 {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: server has no phrases loaded")
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d phrases (version %s)\n", h.Status, h.Phrases, h.Version)
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server address to query (default server.listen_addr)")

	return cmd
}
