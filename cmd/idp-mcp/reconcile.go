// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nmmflow/idp-mcp/internal/entity"
	"github.com/nmmflow/idp-mcp/internal/tool"
)

type reconcileOptions struct {
	sessionFile string
	format      string
	output      string
}

func newReconcileCmd(a *app) *cobra.Command {
	opts := &reconcileOptions{}
	cmd := &cobra.Command{
		Use:   "reconcile FILE...",
		Short: "Build the claims-system payload for one or more extraction files",
		Long: "Reconcile parses each extraction file, applies the edits and deletions of an\n" +
			"optional saved session and prints the resulting payload. With several files\n" +
			"the output maps each file name to its payload.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReconcile(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.sessionFile, "session", "", "saved session file with overrides and deletions")
	cmd.Flags().StringVar(&opts.format, "format", "", "extraction shape hint: array or map")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func (a *app) runReconcile(ctx context.Context, w io.Writer, files []string, opts *reconcileOptions) error {
	r, err := a.cfg.Reconciler(a.logger)
	if err != nil {
		return err
	}

	sess := entity.NewSession()
	if opts.sessionFile != "" {
		f, err := os.Open(opts.sessionFile)
		if err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}
		sess, err = entity.LoadSession(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	pipeline := tool.DefaultPipeline()
	payloads := make([]entity.Payload, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %q: %w", file, err)
			}
			ex, err := pipeline.Run(gctx, entity.Source{Content: content, Format: opts.format, ID: file})
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			res := sess.Reconcile(r, ex)
			if a.cfg.ValidatePayload {
				if err := entity.ValidatePayload(res.Payload); err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
			}
			a.logger.Info().
				Str("file", file).
				Int("sections", res.SectionCount).
				Int("payload_fields", len(res.Payload)).
				Int("collisions", len(res.Collisions)).
				Msg("reconciled")
			payloads[i] = res.Payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var out any = payloads[0]
	if len(files) > 1 {
		byFile := make(map[string]entity.Payload, len(files))
		for i, file := range files {
			byFile[file] = payloads[i]
		}
		out = byFile
	}
	return write(w, opts.output, out)
}

func write(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", format)
}
