// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum log level to output.
	Level string
	// Format is json or console; auto picks console for a terminal.
	Format string
	// Output is stderr, stdout, discard or a file path.
	Output string
}

// New creates a logger from cfg. The MCP server speaks on stdout, so the
// default output is stderr. The returned Closer releases the log file when
// Output names one; callers close it once the logger is no longer used.
// A log file that cannot be opened is reported on stderr, which then
// receives the log.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	out, closer, openErr := output(cfg.Output)
	logger := zerolog.New(format(cfg.Format, out)).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
	if openErr != nil {
		logger.Warn().Err(openErr).Str("output", cfg.Output).Msg("cannot open log output, logging to stderr")
	}
	return logger, closer
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func output(name string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, nopCloser{}, nil
	case "stdout":
		return os.Stdout, nopCloser{}, nil
	case "discard", "none":
		return io.Discard, nopCloser{}, nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr, nopCloser{}, err
	}
	return f, f, nil
}

func format(name string, out io.Writer) io.Writer {
	name = strings.ToLower(name)
	if name == "" || name == "auto" {
		name = "json"
		if f, ok := out.(*os.File); ok && f == os.Stderr {
			if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
				name = "console"
			}
		}
	}
	if name == "console" || name == "pretty" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return out
}
