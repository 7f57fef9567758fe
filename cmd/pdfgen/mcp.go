package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/lvillar/pdfgen/internal/logging"
	"github.com/lvillar/pdfgen/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP tool server over stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conv, err := a.converter()
			if err != nil {
				return err
			}
			s := mcp.NewServerWithIO(version, cmd.InOrStdin(), cmd.OutOrStdout())
			mcp.RegisterTools(s, conv)
			mcp.RegisterResources(s)

			log := logging.WithComponent("mcp")
			ctx := log.WithContext(cmd.Context())
			log.Info().Str("version", version).Msg("serving MCP on stdio")
			if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
