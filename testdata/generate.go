// Generate writes a synthetic e-commerce dataset for local runs:
//
//	go run ./testdata/generate.go -out archive/parquet
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/vegasq/shopstats/shop/sample"
)

func main() {
	out := flag.String("out", "archive/parquet", "Output directory")
	seed := flag.Int64("seed", 1, "Random seed")
	orders := flag.Int("orders", sample.DefaultConfig().Orders, "Number of orders")
	flag.Parse()

	cfg := sample.DefaultConfig()
	cfg.Orders = *orders

	paths, err := sample.WriteParquet(*out, sample.Generate(*seed, cfg))
	if err != nil {
		slog.Error("failed to generate dataset", "error", err)
		os.Exit(1)
	}
	for table, path := range paths {
		slog.Info("wrote table", "table", string(table), "path", path)
	}
}
