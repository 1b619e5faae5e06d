// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/nmmflow/idp-mcp/internal/tool"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.cfg.Reconciler(a.logger)
			if err != nil {
				return err
			}
			tools := tool.NewToolset(
				tool.WithReconciler(r),
				tool.WithPrioritySections(a.cfg.PrioritySections),
				tool.WithValidation(a.cfg.ValidatePayload),
				tool.WithLogger(a.logger),
			)
			server := tool.NewServer(tools, version)

			a.logger.Info().Str("order", r.Order().Name()).Msg("serving MCP on stdio")
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
