// Package config loads the shopstats configuration file.
//
// Every setting has a default; with no file at all the program reads the
// five Parquet files under archive/parquet directly, computes the report
// with the native engine and prints a table. Command-line flags override
// file values after loading.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vegasq/shopstats/analytics"
	"github.com/vegasq/shopstats/catalog"
	"github.com/vegasq/shopstats/output"
	"github.com/vegasq/shopstats/shop"
	"github.com/vegasq/shopstats/source"
)

// Run modes.
const (
	ModeFiles   = "files"
	ModeCatalog = "catalog"
)

// Engines.
const (
	EngineNative = "native"
	EngineSQL    = "sql"
)

// Config is the whole configuration file.
type Config struct {
	// Mode selects where tables are read from: the input files directly
	// or the catalog after bootstrapping it.
	Mode    string         `yaml:"mode"`
	Engine  string         `yaml:"engine"`
	Input   InputConfig    `yaml:"input"`
	Catalog catalog.Config `yaml:"catalog"`
	Query   QueryConfig    `yaml:"query"`
	Output  OutputConfig   `yaml:"output"`
	Log     LogConfig      `yaml:"log"`
}

// InputConfig locates the five input files.
type InputConfig struct {
	Dir string `yaml:"dir"`
	// Tables overrides the location of individual tables, e.g. with a glob
	// of part files or an s3:// URI.
	Tables map[string]string `yaml:"tables"`
	S3     source.S3Config   `yaml:"s3"`
}

type QueryConfig struct {
	TopCountries int    `yaml:"top_countries"`
	TieBreak     string `yaml:"tie_break"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
}

// LogConfig configures the slog logger. Logs go to stderr.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Mode:    ModeFiles,
		Engine:  EngineNative,
		Input:   InputConfig{Dir: source.DefaultDir},
		Catalog: catalog.DefaultConfig(),
		Query: QueryConfig{
			TopCountries: analytics.DefaultTopCountries,
			TieBreak:     string(analytics.TieBreakProductID),
		},
		Output: OutputConfig{Format: output.FormatTable},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. Unknown keys are an error. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeFiles, ModeCatalog:
	default:
		return fmt.Errorf("unknown mode %q (want %q or %q)", c.Mode, ModeFiles, ModeCatalog)
	}
	switch c.Engine {
	case EngineNative, EngineSQL:
	default:
		return fmt.Errorf("unknown engine %q (want %q or %q)", c.Engine, EngineNative, EngineSQL)
	}
	if _, err := c.Layout(); err != nil {
		return err
	}
	if _, err := c.Options(); err != nil {
		return err
	}
	if _, err := output.New(c.Output.Format, io.Discard); err != nil {
		return err
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	if c.Mode == ModeCatalog {
		if err := c.Catalog.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Layout returns the input locations: <dir>/<table>.parquet unless
// overridden per table.
func (c Config) Layout() (source.Layout, error) {
	layout := source.DefaultLayout(c.Input.Dir)
	for name, loc := range c.Input.Tables {
		t, err := shop.ParseTable(name)
		if err != nil {
			return nil, fmt.Errorf("input.tables: %w", err)
		}
		layout[t] = loc
	}
	return layout, nil
}

// UsesS3 reports whether any input lives in S3.
func (c Config) UsesS3() bool {
	layout, err := c.Layout()
	if err != nil {
		return false
	}
	for _, loc := range layout {
		if source.IsS3(loc) {
			return true
		}
	}
	return false
}

// Options returns the report options.
func (c Config) Options() (analytics.Options, error) {
	tb, err := analytics.ParseTieBreak(c.Query.TieBreak)
	if err != nil {
		return analytics.Options{}, err
	}
	opts := analytics.Options{TopCountries: c.Query.TopCountries, TieBreak: tb}
	return opts, opts.Validate()
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", l.Level)
	}
	return level, nil
}

// NewLogger builds the logger described by l writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}
