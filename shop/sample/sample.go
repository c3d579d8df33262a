// Package sample generates synthetic e-commerce datasets and writes them as
// Parquet files laid out the way the report expects them.
package sample

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/shopstats/shop"
)

var countries = []string{
	"United States", "Germany", "France", "Italy", "Spain", "United Kingdom",
	"Canada", "Brazil", "Japan", "Australia", "India", "Mexico", "Netherlands",
	"Sweden", "Poland",
}

var genders = []string{shop.GenderMale, shop.GenderFemale, shop.GenderMale, shop.GenderFemale, "Other", ""}

// Config sizes a generated dataset.
type Config struct {
	Countries        int
	Products         int
	Customers        int
	Orders           int
	MaxItemsPerOrder int
	// ReviewsPerProduct is the maximum number of reviews per product; some
	// products get none.
	ReviewsPerProduct int
}

// DefaultConfig returns a dataset large enough to populate all top-10
// countries.
func DefaultConfig() Config {
	return Config{
		Countries:         len(countries),
		Products:          60,
		Customers:         400,
		Orders:            2000,
		MaxItemsPerOrder:  4,
		ReviewsPerProduct: 6,
	}
}

// Generate builds a deterministic dataset for seed. Order totals are
// multiples of 0.25 so sums are exact in float64 regardless of summation
// order.
func Generate(seed int64, cfg Config) *shop.Dataset {
	rng := rand.New(rand.NewSource(seed))
	if cfg.Countries <= 0 || cfg.Countries > len(countries) {
		cfg.Countries = len(countries)
	}
	if cfg.MaxItemsPerOrder <= 0 {
		cfg.MaxItemsPerOrder = 1
	}

	ds := &shop.Dataset{}
	for i := 1; i <= cfg.Products; i++ {
		ds.Products = append(ds.Products, shop.Product{
			ProductID:   id(i),
			ProductName: fmt.Sprintf("Product %03d", i),
		})
		for n := rng.Intn(cfg.ReviewsPerProduct + 1); n > 0; n-- {
			ds.Reviews = append(ds.Reviews, shop.ProductReview{
				ProductID: id(i),
				Rating:    float64(1 + rng.Intn(5)),
			})
		}
	}

	for i := 1; i <= cfg.Customers; i++ {
		ds.Customers = append(ds.Customers, shop.Customer{
			CustomerID: id(i),
			Gender:     genders[rng.Intn(len(genders))],
		})
	}

	for i := 1; i <= cfg.Orders; i++ {
		order := shop.Order{
			OrderID:         id(i),
			CustomerID:      id(1 + rng.Intn(cfg.Customers)),
			ShippingCountry: shop.Country(countries[rng.Intn(cfg.Countries)]),
			TotalAmount:     float64(4+rng.Intn(4000)) / 4,
		}
		ds.Orders = append(ds.Orders, order)

		for n := 1 + rng.Intn(cfg.MaxItemsPerOrder); n > 0; n-- {
			ds.OrderItems = append(ds.OrderItems, shop.OrderItem{
				OrderID:   order.OrderID,
				ProductID: id(1 + rng.Intn(cfg.Products)),
				Quantity:  int64(1 + rng.Intn(5)),
			})
		}
	}
	return ds
}

func id(n int) shop.ID {
	return shop.ID(fmt.Sprintf("%d", n))
}

// WriteParquet writes the five relations as <dir>/<table>.parquet and
// returns the paths.
func WriteParquet(dir string, ds *shop.Dataset, opts ...parquet.WriterOption) (map[shop.Table]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	paths := make(map[shop.Table]string, len(shop.Tables))
	for _, t := range shop.Tables {
		path := filepath.Join(dir, string(t)+".parquet")
		if err := ds.WriteTable(path, t, opts...); err != nil {
			return nil, err
		}
		paths[t] = path
	}
	return paths, nil
}
