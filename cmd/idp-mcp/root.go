// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nmmflow/idp-mcp/internal/config"
)

type app struct {
	configFile string
	logLevel   string
	order      string

	cfg    *config.Config
	logger zerolog.Logger
	logOut io.Closer
}

// newRootCmd returns the command tree and a Closer that releases the log
// output opened while the command ran.
func newRootCmd() (*cobra.Command, io.Closer) {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "idp-mcp",
		Short:         "Reconcile extracted claim entities into claims-system payloads",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .idp-mcp.yaml in the working directory)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&a.order, "order", "", "section order: document, reverse, alphabetical, priority, priority-last")

	cmd.AddCommand(
		newServeCmd(a),
		newReconcileCmd(a),
		newEntitiesCmd(a),
		newKeyCmd(),
	)
	return cmd, a
}

// Close releases the log file, if one was opened.
func (a *app) Close() error {
	if a.logOut == nil {
		return nil
	}
	err := a.logOut.Close()
	a.logOut = nil
	return err
}

// load reads the configuration; flags win over file and environment.
func (a *app) load() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.order != "" {
		cfg.Order = a.order
	}
	a.cfg = cfg
	a.logger, a.logOut = cfg.Logger()
	if cfg.ConfigFile != "" {
		a.logger.Debug().Str("file", cfg.ConfigFile).Msg("config loaded")
	}
	return nil
}
