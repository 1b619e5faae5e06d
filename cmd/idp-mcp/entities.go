// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nmmflow/idp-mcp/internal/entity"
	"github.com/nmmflow/idp-mcp/internal/tool"
)

func newEntitiesCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "entities FILE",
		Short: "List the entities of an extraction file with their keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %q: %w", args[0], err)
			}
			res, err := tool.DefaultPipeline().RunWithMeta(cmd.Context(), entity.Source{
				Content: content,
				Format:  format,
				ID:      args[0],
			})
			if err != nil {
				return err
			}
			a.logger.Debug().Str("parser", res.ParserUsed).Int("fields", res.FieldCount).Msg("parsed")
			return write(cmd.OutOrStdout(), output, res.Extraction.Entities())
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "extraction shape hint: array or map")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func newKeyCmd() *cobra.Command {
	var index int
	var field string
	cmd := &cobra.Command{
		Use:   "key SECTION",
		Short: "Print the entity key for a section and an index or field name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id entity.FieldID
			switch {
			case cmd.Flags().Changed("index") && field == "":
				if index < 0 {
					return fmt.Errorf("index must not be negative")
				}
				id = entity.Index(index)
			case !cmd.Flags().Changed("index") && field != "":
				id = entity.Name(field)
			default:
				return tool.ErrInvalidFieldID
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), entity.ComputeEntityKey(args[0], id))
			return err
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "zero-based position in an array-shaped section")
	cmd.Flags().StringVar(&field, "field", "", "field name in a map-shaped section")
	return cmd
}
