package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vegasq/shopstats/analytics"
	"github.com/vegasq/shopstats/catalog"
	"github.com/vegasq/shopstats/internal/config"
	"github.com/vegasq/shopstats/output"
	"github.com/vegasq/shopstats/shop"
	"github.com/vegasq/shopstats/source"
	"github.com/vegasq/shopstats/sqlengine"
)

type app struct {
	stdout, stderr io.Writer
	logger         *slog.Logger
	cfg            config.Config

	configPath string
	logLevel   string
	logFormat  string
	format     string
	inputDir   string
	run        runFlags
}

type runFlags struct {
	mode     string
	engine   string
	top      int
	tieBreak string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, nil)),
	}
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:   "shopstats",
		Short: "Top product per country with ratings and buyer demographics",
		Long: `shopstats joins orders, order items, products, reviews and customers to
find, for the ten countries with the highest single-product sales, the
best-selling product together with its average rating and the share of
male and female customers who bought it.

Without a subcommand it runs the report.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runReport,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	root.PersistentFlags().StringVarP(&a.format, "format", "f", "", "Output format: table, csv, json")
	root.PersistentFlags().StringVar(&a.inputDir, "input-dir", "", "Directory holding <table>.parquet files")
	a.addRunFlags(root)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Compute and print the report",
		Args:  cobra.NoArgs,
		RunE:  a.runReport,
	}
	a.addRunFlags(runCmd)

	root.AddCommand(
		runCmd,
		&cobra.Command{
			Use:   "bootstrap",
			Short: "Create the catalog tables from the input files",
			Long: `Creates or replaces every catalog table whose input file is present,
unless all five tables already exist. Missing input files are logged and
skipped.`,
			Args: cobra.NoArgs,
			RunE: a.runBootstrap,
		},
		&cobra.Command{
			Use:   "tables",
			Short: "List the catalog tables",
			Args:  cobra.NoArgs,
			RunE:  a.runTables,
		},
		&cobra.Command{
			Use:       "schema [table...]",
			Short:     "Print the schema of the input files",
			ValidArgs: tableNames(),
			Args:      cobra.OnlyValidArgs,
			RunE:      a.runSchema,
		},
	)
	return root
}

func tableNames() []string {
	names := make([]string, len(shop.Tables))
	for i, t := range shop.Tables {
		names[i] = string(t)
	}
	return names
}

func (a *app) addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.run.mode, "mode", "", "Where tables are read from: files or catalog")
	f.StringVar(&a.run.engine, "engine", "", "Report engine: native or sql")
	f.IntVar(&a.run.top, "top", 0, "Number of countries to report")
	f.StringVar(&a.run.tieBreak, "tie-break", "", "Tie-break for equal sales: product_id or none")
}

// setup loads the configuration, applies flags on top and builds the
// logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("log-level", &cfg.Log.Level, a.logLevel)
	set("log-format", &cfg.Log.Format, a.logFormat)
	set("mode", &cfg.Mode, a.run.mode)
	set("engine", &cfg.Engine, a.run.engine)
	set("format", &cfg.Output.Format, a.format)
	set("input-dir", &cfg.Input.Dir, a.inputDir)
	set("tie-break", &cfg.Query.TieBreak, a.run.tieBreak)
	if flags.Changed("top") {
		cfg.Query.TopCountries = a.run.top
	}

	logger, err := cfg.Log.NewLogger(a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) files(ctx context.Context) (*source.Files, error) {
	layout, err := a.cfg.Layout()
	if err != nil {
		return nil, err
	}
	var s3 *source.S3
	if a.cfg.UsesS3() {
		if s3, err = source.NewS3(ctx, a.cfg.Input.S3); err != nil {
			return nil, err
		}
	}
	return source.NewFiles(layout, s3), nil
}

func (a *app) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	return catalog.Open(ctx, a.cfg.Catalog, a.logger)
}

func (a *app) print(t output.Table) error {
	f, err := output.New(a.cfg.Output.Format, a.stdout)
	if err != nil {
		return err
	}
	return f.Format(t)
}

func (a *app) runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	opts, err := a.cfg.Options()
	if err != nil {
		return err
	}
	files, err := a.files(ctx)
	if err != nil {
		return err
	}

	var resolver shop.Resolver = files
	if a.cfg.Mode == config.ModeCatalog {
		cat, err := a.openCatalog(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = cat.Close() }()

		if _, err := catalog.Bootstrap(ctx, cat, files, a.logger); err != nil {
			return err
		}
		resolver = cat
	}

	start := time.Now()
	var results []analytics.Result
	switch a.cfg.Engine {
	case config.EngineSQL:
		results, err = sqlengine.Run(ctx, resolver, opts)
	default:
		results, err = analytics.New(resolver, opts, a.logger).Execute(ctx)
	}
	if err != nil {
		return err
	}
	a.logger.Debug("report computed", "engine", a.cfg.Engine, "mode", a.cfg.Mode,
		"rows", len(results), "elapsed", time.Since(start))

	t := output.Table{Columns: analytics.Columns}
	for _, r := range results {
		t.Rows = append(t.Rows, r.Values())
	}
	return a.print(t)
}

func (a *app) runBootstrap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	files, err := a.files(ctx)
	if err != nil {
		return err
	}
	cat, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	report, err := catalog.Bootstrap(ctx, cat, files, a.logger)
	if err != nil {
		return err
	}

	t := output.Table{Columns: []string{"table", "status"}}
	add := func(tables []shop.Table, status string) {
		for _, name := range tables {
			t.Rows = append(t.Rows, []interface{}{string(name), status})
		}
	}
	add(report.Existing, "exists")
	add(report.Created, "created")
	add(report.Skipped, "skipped")
	return a.print(t)
}

func (a *app) runTables(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cat, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	tables, err := cat.Tables(ctx)
	if err != nil {
		return err
	}

	t := output.Table{Columns: []string{"name", "catalog", "rows", "data_file", "snapshot_id", "created_at"}}
	for _, info := range tables {
		t.Rows = append(t.Rows, []interface{}{
			string(info.Name), info.Catalog, info.RowCount, info.DataFile,
			info.SnapshotID.String(), info.CreatedAt.Format(time.RFC3339),
		})
	}
	return a.print(t)
}

func (a *app) runSchema(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	files, err := a.files(ctx)
	if err != nil {
		return err
	}

	tables := shop.Tables
	if len(args) > 0 {
		tables = nil
		for _, name := range args {
			tbl, err := shop.ParseTable(name)
			if err != nil {
				return err
			}
			tables = append(tables, tbl)
		}
	}

	t := output.Table{Columns: []string{"table", "file", "column", "type", "physical_type", "logical_type", "optional"}}
	for _, tbl := range tables {
		schemas, err := files.Describe(ctx, tbl)
		if err != nil {
			return err
		}
		paths := make([]string, 0, len(schemas))
		for path := range schemas {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			for _, col := range schemas[path] {
				t.Rows = append(t.Rows, []interface{}{
					string(tbl), filepath.Base(path), col.Name, col.Type,
					col.PhysicalType, nullable(col.LogicalType), col.Optional,
				})
			}
		}
	}
	return a.print(t)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
