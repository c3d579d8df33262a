// Package sqlengine runs the report as one SQL statement over an in-memory
// SQLite database loaded with the five relations.
package sqlengine

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vegasq/shopstats/analytics"
	"github.com/vegasq/shopstats/shop"
)

// Key columns have no declared type, so SQLite keeps integer keys as
// INTEGER and the rest as TEXT without converting either.
var schema = []string{
	`CREATE TABLE orders (
		order_id,
		customer_id,
		shipping_country TEXT,
		total_amount REAL
	)`,
	`CREATE TABLE order_items (
		order_id,
		product_id,
		quantity INTEGER
	)`,
	`CREATE TABLE products (
		product_id,
		product_name TEXT
	)`,
	`CREATE TABLE product_reviews (
		product_id,
		rating REAL
	)`,
	`CREATE TABLE customers (
		customer_id,
		gender TEXT
	)`,
	`CREATE INDEX idx_order_items_order ON order_items(order_id)`,
	`CREATE INDEX idx_orders_order ON orders(order_id)`,
}

// Run loads the relations r resolves and executes the report on them.
func Run(ctx context.Context, r shop.Resolver, opts analytics.Options) ([]analytics.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ds, err := shop.Load(ctx, r)
	if err != nil {
		return nil, err
	}
	return RunDataset(ctx, ds, opts)
}

// RunDataset executes the report on an already loaded dataset.
func RunDataset(ctx context.Context, ds *shop.Dataset, opts analytics.Options) ([]analytics.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	defer func() { _ = db.Close() }()
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if err := load(ctx, db, ds); err != nil {
		return nil, err
	}

	return analytics.QuerySQL(ctx, db, opts, analytics.TableName)
}

func load(ctx context.Context, db *sql.DB, ds *shop.Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range shop.Tables {
		if err := insert(ctx, tx, ds, t); err != nil {
			return fmt.Errorf("failed to load %s: %w", t, err)
		}
	}
	return tx.Commit()
}

func insert(ctx context.Context, tx *sql.Tx, ds *shop.Dataset, t shop.Table) error {
	query := map[shop.Table]string{
		shop.Orders:         `INSERT INTO orders VALUES (?, ?, ?, ?)`,
		shop.OrderItems:     `INSERT INTO order_items VALUES (?, ?, ?)`,
		shop.Products:       `INSERT INTO products VALUES (?, ?)`,
		shop.ProductReviews: `INSERT INTO product_reviews VALUES (?, ?)`,
		shop.Customers:      `INSERT INTO customers VALUES (?, ?)`,
	}[t]

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	exec := func(args ...interface{}) error {
		_, err := stmt.ExecContext(ctx, args...)
		return err
	}

	switch t {
	case shop.Orders:
		for _, o := range ds.Orders {
			if err := exec(key(o.OrderID), key(o.CustomerID), nullable(o.ShippingCountry), o.TotalAmount); err != nil {
				return err
			}
		}
	case shop.OrderItems:
		for _, oi := range ds.OrderItems {
			if err := exec(key(oi.OrderID), key(oi.ProductID), oi.Quantity); err != nil {
				return err
			}
		}
	case shop.Products:
		for _, p := range ds.Products {
			if err := exec(key(p.ProductID), p.ProductName); err != nil {
				return err
			}
		}
	case shop.ProductReviews:
		for _, r := range ds.Reviews {
			if err := exec(key(r.ProductID), r.Rating); err != nil {
				return err
			}
		}
	case shop.Customers:
		for _, c := range ds.Customers {
			if err := exec(key(c.CustomerID), c.Gender); err != nil {
				return err
			}
		}
	}
	return nil
}

// key maps a NULL id to SQL NULL so it never joins. Integer keys are
// bound as integers so they sort numerically.
func key(id shop.ID) interface{} {
	if id.Null() {
		return nil
	}
	if n, ok := id.Int(); ok {
		return n
	}
	return string(id)
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
