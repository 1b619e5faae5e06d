// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/nmmflow/idp-mcp/internal/entity"
	"github.com/nmmflow/idp-mcp/internal/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "IDP"

// Config holds the settings shared by the CLI and the MCP server.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogOutput string `mapstructure:"log_output"`

	// Order names the section order used to break target field collisions.
	Order            string   `mapstructure:"order"`
	PrioritySections []string `mapstructure:"priority_sections"`

	// FieldMapFile optionally extends the built-in field name table.
	FieldMapFile   string `mapstructure:"field_map_file"`
	ClaimHeuristic bool   `mapstructure:"claim_heuristic"`

	ValidatePayload bool `mapstructure:"validate_payload"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-"`
}

// Load reads configuration in order of precedence: environment variables
// (IDP_*), .env.local, .env, the config file, then defaults. An explicit
// configFile must exist; otherwise .idp-mcp.yaml is looked up in the working
// directory and is optional.
func Load(configFile string) (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", configFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(".idp-mcp")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
	v.SetDefault("order", "document")
	v.SetDefault("priority_sections", []string{"claim"})
	v.SetDefault("field_map_file", "")
	v.SetDefault("claim_heuristic", true)
	v.SetDefault("validate_payload", true)
}

// Logger builds the logger described by the log_* settings. The Closer
// releases the log file, if any.
func (c *Config) Logger() (zerolog.Logger, io.Closer) {
	return logging.New(logging.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	})
}

// Mapper builds the field mapper, loading FieldMapFile when set.
func (c *Config) Mapper() (*entity.Mapper, error) {
	var opts []entity.MapperOption
	if c.FieldMapFile != "" {
		fm, err := entity.LoadFieldMap(c.FieldMapFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, entity.WithFieldMap(fm))
	}
	if !c.ClaimHeuristic {
		opts = append(opts, entity.WithFallbacks())
	}
	return entity.NewMapper(opts...), nil
}

// Reconciler builds a Reconciler from the configured order and mapper.
func (c *Config) Reconciler(logger zerolog.Logger) (*entity.Reconciler, error) {
	order, err := entity.ParseOrder(c.Order, c.PrioritySections)
	if err != nil {
		return nil, err
	}
	mapper, err := c.Mapper()
	if err != nil {
		return nil, err
	}
	return entity.NewReconciler(
		entity.WithMapper(mapper),
		entity.WithOrder(order),
		entity.WithLogger(logger),
	), nil
}
