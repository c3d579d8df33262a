package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/vegasq/shopstats/shop"
)

// Pipeline runs the report over the relations a Resolver provides. The
// Resolver is the only thing that differs between reading Parquet files
// directly and reading catalog tables.
type Pipeline struct {
	resolver shop.Resolver
	opts     Options
	logger   *slog.Logger
}

// New creates a pipeline. A nil logger discards debug output.
func New(r shop.Resolver, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{resolver: r, opts: opts, logger: logger}
}

// Execute loads all five relations and computes the report. Any load or
// decode failure fails the whole run; no partial result is returned.
func (p *Pipeline) Execute(ctx context.Context) ([]Result, error) {
	if err := p.opts.Validate(); err != nil {
		return nil, err
	}

	ds, err := shop.Load(ctx, p.resolver)
	if err != nil {
		return nil, err
	}
	for _, t := range shop.Tables {
		p.logger.Debug("loaded table", "table", t, "rows", ds.Len(t))
	}

	return run(ds, p.opts, p.logger), nil
}

// Run computes the report from an already loaded dataset. It has no side
// effects and does not modify ds.
func Run(ds *shop.Dataset, opts Options) ([]Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, errors.New("nil dataset")
	}
	return run(ds, opts, slog.New(slog.NewTextHandler(io.Discard, nil))), nil
}

func run(ds *shop.Dataset, opts Options, logger *slog.Logger) []Result {
	sales := computeProductSales(ds)
	ratings := computeRatings(ds.Reviews)
	stats := computeCustomerStats(ds)
	ranked := rankSales(sales, ratings, stats, opts.TieBreak)
	top := topCountries(sales, opts.TopCountries, opts.TieBreak)
	results := selectReport(ranked, top)

	logger.Debug("report computed",
		"sales_groups", len(sales),
		"rated_products", len(ratings),
		"products_with_buyers", len(stats),
		"top_countries", len(top),
		"rows", len(results))

	return results
}
