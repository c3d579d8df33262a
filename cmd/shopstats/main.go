// Command shopstats reports, for the ten countries with the best-selling
// single products, that top product with its average rating and the share
// of male and female buyers.
//
// Usage:
//
//	shopstats [run] [flags]
//	shopstats bootstrap
//	shopstats tables
//	shopstats schema [table...]
//
// Inputs are read from archive/parquet by default. With --mode catalog the
// tables are first materialized into a local catalog (SQLite metadata plus
// Parquet data files) and the report runs against the catalog.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(os.Stdout, os.Stderr)
	if err := a.command().ExecuteContext(ctx); err != nil {
		a.logger.Error("shopstats failed", "error", err)
		stop()
		os.Exit(1)
	}
}
